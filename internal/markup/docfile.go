package markup

import (
	"fmt"
	"io"
	"sort"
)

// DocSet is the content of an XML documentation file: one markup tree per
// documented member, keyed by the prefixed ID in its name attribute.
type DocSet struct {
	Assembly string
	Members  map[string]*Element
}

// ParseDocFile reads the conventional container
//
//	<doc><assembly><name>A</name></assembly><members><member name="T:N.T">...</member></members></doc>
func ParseDocFile(r io.Reader) (*DocSet, error) {
	root, err := Parse(r)
	if err != nil {
		return nil, err
	}
	if root.Name != "doc" {
		return nil, fmt.Errorf("unexpected root element <%s>, want <doc>", root.Name)
	}

	set := &DocSet{Members: make(map[string]*Element)}
	if asm := root.Find("assembly"); asm != nil {
		if name := asm.Find("name"); name != nil {
			set.Assembly = name.Text()
		}
	}
	members := root.Find("members")
	if members == nil {
		return set, nil
	}
	for _, m := range members.Elements() {
		if m.Name != "member" {
			continue
		}
		name, ok := m.Attr("name")
		if !ok || name == "" {
			continue
		}
		set.Members[name] = m
	}
	return set, nil
}

// Names returns the documented member names in sorted order.
func (d *DocSet) Names() []string {
	out := make([]string, 0, len(d.Members))
	for name := range d.Members {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
