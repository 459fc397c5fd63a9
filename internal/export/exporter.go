package export

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/klauspost/compress/zstd"
	toml "github.com/pelletier/go-toml/v2"
	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	apierrors "apidoc/internal/errors"
	"apidoc/internal/registry"
)

// Exporter writes registries in the supported formats.
type Exporter struct {
	logger *slog.Logger
}

// NewExporter creates an exporter.
func NewExporter(logger *slog.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Export writes reg to w. A zero meta.Generated is filled with the current
// time.
func (e *Exporter) Export(w io.Writer, reg *registry.Registry, meta Metadata, opts Options) (err error) {
	if opts.Format == "" {
		opts.Format = FormatJSON
	}
	if meta.Generated == "" {
		meta.Generated = time.Now().UTC().Format(time.RFC3339)
	}

	out := w
	if opts.Compress {
		enc, zerr := zstd.NewWriter(w)
		if zerr != nil {
			return apierrors.New(apierrors.ExportError, "failed to create zstd encoder", zerr)
		}
		defer func() {
			if cerr := enc.Close(); cerr != nil && err == nil {
				err = apierrors.New(apierrors.ExportError, "failed to flush compressed output", cerr)
			}
		}()
		out = enc
	}

	start := time.Now()
	switch opts.Format {
	case FormatSCIP:
		err = writeSCIP(out, BuildSCIP(reg, meta))
	case FormatText:
		_, err = io.WriteString(out, FormatOrganizedText(Organize(reg, meta, opts.Declared)))
	case FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(Organize(reg, meta, opts.Declared))
	case FormatTOML:
		enc := toml.NewEncoder(out)
		enc.SetIndentTables(true)
		err = enc.Encode(Organize(reg, meta, opts.Declared))
	default:
		return apierrors.Newf(apierrors.ExportError, "unknown export format %q", opts.Format)
	}
	if err != nil {
		return apierrors.New(apierrors.ExportError, fmt.Sprintf("failed to write %s export", opts.Format), err)
	}

	e.logger.Info("Registry exported", "format", string(opts.Format), "compressed", opts.Compress,
		"types", reg.Len(), "duration", time.Since(start))
	return nil
}

func writeSCIP(w io.Writer, index *scippb.Index) error {
	data, err := proto.Marshal(index)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode reads a JSON or TOML snapshot, decompressing first when compressed.
func Decode(r io.Reader, format Format, compressed bool) (*Snapshot, error) {
	in, closeFn, err := reader(r, compressed)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var snap Snapshot
	switch format {
	case FormatJSON, "":
		err = json.NewDecoder(in).Decode(&snap)
	case FormatTOML:
		err = toml.NewDecoder(in).Decode(&snap)
	default:
		return nil, apierrors.Newf(apierrors.ExportError, "cannot decode %q snapshots", format)
	}
	if err != nil {
		return nil, apierrors.New(apierrors.ExportError, "failed to decode snapshot", err)
	}
	return &snap, nil
}

// ReadSCIP reads a SCIP index written by Export.
func ReadSCIP(r io.Reader, compressed bool) (*scippb.Index, error) {
	in, closeFn, err := reader(r, compressed)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, apierrors.New(apierrors.ExportError, "failed to read SCIP index", err)
	}
	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, apierrors.New(apierrors.ExportError, "failed to parse SCIP index", err)
	}
	return &index, nil
}

func reader(r io.Reader, compressed bool) (io.Reader, func(), error) {
	if !compressed {
		return r, func() {}, nil
	}
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, apierrors.New(apierrors.ExportError, "failed to create zstd decoder", err)
	}
	return dec, dec.Close, nil
}
