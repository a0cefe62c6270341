package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// zstdSuffix marks dump files that are zstd-compressed.
const zstdSuffix = ".zst"

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// FormatForPath picks the dump format from a file name, ignoring a trailing
// .zst. Unknown extensions return fallback.
func FormatForPath(path string, fallback Format) Format {
	base := strings.TrimSuffix(strings.ToLower(path), zstdSuffix)
	switch filepath.Ext(base) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".cbor":
		return FormatCBOR
	case ".txt":
		return FormatText
	}
	return fallback
}

// WriteFile writes s to path in format. Paths ending in .zst are
// compressed with zstd.
func WriteFile(path string, s *Snapshot, format Format) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	var w io.Writer = bw
	var enc *zstd.Encoder
	if strings.HasSuffix(strings.ToLower(path), zstdSuffix) {
		enc, err = zstd.NewWriter(bw, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		w = enc
	}

	if err := New(w, format).WriteSnapshot(s); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("zstd close: %w", err)
		}
	}
	return bw.Flush()
}

// ReadSnapshotFile reads a dump written by WriteFile in JSON, YAML or CBOR.
// Compression is detected from the content, the format from the content and
// file extension.
func ReadSnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := DecodeSnapshot(data, FormatForPath(path, FormatCBOR))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// DecodeSnapshot decodes a possibly zstd-compressed dump. JSON is detected
// from its leading brace; otherwise hint decides between YAML and CBOR.
func DecodeSnapshot(data []byte, hint Format) (*Snapshot, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		data, err = dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
	}

	var s Snapshot
	switch {
	case bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")):
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case hint == FormatYAML:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case hint == FormatText || hint == FormatTable:
		return nil, fmt.Errorf("%s dumps cannot be read back", hint)
	default:
		if err := unmarshalCBOR(data, &s); err != nil {
			return nil, fmt.Errorf("decode cbor: %w", err)
		}
	}
	return &s, nil
}
