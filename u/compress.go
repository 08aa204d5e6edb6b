package u

import (
	"bytes"
	"compress/gzip"
	"io"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// CompressionExt returns the compression suffix of path
// (".gz", ".zst", ".br") or "" if path is not compressed
func CompressionExt(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gz", ".br":
		return ext
	case ".zst", ".zstd":
		return ".zst"
	}
	return ""
}

// TrimCompressionExt removes compression suffix from path
// "kv_store.json.zst" => "kv_store.json"
func TrimCompressionExt(path string) string {
	if CompressionExt(path) == "" {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// CompressDataForPath compresses d based on the extension of path.
// Returns d unchanged if path doesn't have a compression extension.
func CompressDataForPath(path string, d []byte) ([]byte, error) {
	switch CompressionExt(path) {
	case ".gz":
		return GzipData(d)
	case ".zst":
		return ZstdCompressData(d)
	case ".br":
		return BrCompressDataDefault(d)
	}
	return d, nil
}

// DecompressDataForPath is the reverse of CompressDataForPath
func DecompressDataForPath(path string, d []byte) ([]byte, error) {
	switch CompressionExt(path) {
	case ".gz":
		return GunzipData(d)
	case ".zst":
		return ZstdDecompressData(d)
	case ".br":
		return BrDecompressData(d)
	}
	return d, nil
}

func getErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func GzipData(d []byte) ([]byte, error) {
	var dst bytes.Buffer
	w := gzip.NewWriter(&dst)
	_, err := w.Write(d)
	err2 := w.Close()
	if err = getErr(err, err2); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

func GunzipData(d []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(d))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func BrCompressData(d []byte, level int) ([]byte, error) {
	var dst bytes.Buffer
	w := brotli.NewWriterLevel(&dst, level)
	_, err := w.Write(d)
	err2 := w.Close()
	if err = getErr(err, err2); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

func BrCompressDataDefault(d []byte) ([]byte, error) {
	return BrCompressData(d, brotli.DefaultCompression)
}

func BrDecompressData(d []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(d))
	return io.ReadAll(r)
}

func zstdNewWriter(dst io.Writer) (*zstd.Encoder, error) {
	// store files are small, default level is plenty
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func ZstdCompressData(d []byte) ([]byte, error) {
	var dst bytes.Buffer
	w, err := zstdNewWriter(&dst)
	if err != nil {
		return nil, err
	}
	_, err = w.Write(d)
	err2 := w.Close()
	if err = getErr(err, err2); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

func ZstdDecompressData(d []byte) ([]byte, error) {
	zr, err := zstd.NewReader(bytes.NewReader(d))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
