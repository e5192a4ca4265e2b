// Package apkzip opens APK archives well enough to pull out a single
// named entry (normally AndroidManifest.xml), tolerating the broken or
// hand-crafted ZIP layouts that Android's own ZIP reader accepts but
// archive/zip rejects.
package apkzip

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sync"

	"github.com/klauspost/compress/flate"
)

type subEntry struct {
	offset int64
	method uint16
}

// Reader mimics archive/zip.Reader, with the same name able to map to
// more than one actual ZIP entry for broken or crafted archives that
// declare a name twice.
type Reader struct {
	File map[string]*File

	// FilesOrdered lists files in the order they were found; it may
	// repeat the same *File when an archive declares a name twice.
	FilesOrdered []*File

	src      io.ReadSeeker
	ownedSrc *os.File

	// want, when non-nil, restricts scanning to these cleaned entry
	// names: other entries are skipped rather than indexed. APKs carry
	// far more entries than axml ever reads, so only the wanted ones
	// end up in File and FilesOrdered. The manual local-header scan
	// still walks every header to the end of the file; the filter only
	// decides which of them are recorded.
	want map[string]bool
}

func (r *Reader) wants(name string) bool {
	return r.want == nil || r.want[name]
}

// File mimics archive/zip.File but can stand for more than one actual
// entry sharing its name.
type File struct {
	Name  string
	IsDir bool

	zipFile        io.ReadSeeker
	internalReader io.Reader
	internalCloser io.Closer

	zipEntry *zip.File

	entries  []subEntry
	curEntry int
}

// Open prepares the file for reading; iterate with Next/Read to walk
// every entry sharing this file's name.
func (f *File) Open() error {
	if f.internalReader != nil {
		return errors.New("apkzip: file is already open")
	}
	if f.zipEntry != nil {
		f.curEntry = 0
		rc, err := f.zipEntry.Open()
		if err != nil {
			return err
		}
		f.internalReader = rc
		f.internalCloser = rc
	} else {
		f.curEntry = -1
	}
	return nil
}

// Read reads from the currently open entry, returning io.EOF at its
// end even if another entry by the same name remains; call Next to
// move to it.
func (f *File) Read(p []byte) (int, error) {
	if f.internalReader == nil {
		if f.curEntry == -1 && !f.Next() {
			return 0, io.ErrUnexpectedEOF
		}
		if f.curEntry >= len(f.entries) {
			return 0, io.ErrUnexpectedEOF
		}
		if _, err := f.zipFile.Seek(f.entries[f.curEntry].offset, io.SeekStart); err != nil {
			return 0, err
		}
		switch f.entries[f.curEntry].method {
		case zip.Store:
			f.internalReader = f.zipFile
		default: // Android treats anything but Store as Deflate.
			rc := flate.NewReader(f.zipFile)
			f.internalReader = rc
			f.internalCloser = rc
		}
	}
	return f.internalReader.Read(p)
}

// Next advances to the next entry sharing this file's name. Returns
// false once there are no more.
func (f *File) Next() bool {
	if len(f.entries) == 0 && f.internalReader != nil {
		f.curEntry++
		return f.curEntry == 1
	}
	f.Close()
	if f.curEntry+1 >= len(f.entries) {
		return false
	}
	f.curEntry++
	return true
}

// Close releases the currently open entry, if any.
func (f *File) Close() error {
	if f.internalReader != nil {
		if f.internalCloser != nil {
			f.internalCloser.Close()
			f.internalCloser = nil
		}
		f.internalReader = nil
	}
	return nil
}

// ReadAll opens, reads every byte up to limit, and closes the file,
// retrying subsequent same-named entries until one reads cleanly.
func (f *File) ReadAll(limit int64) ([]byte, error) {
	if err := f.Open(); err != nil {
		return nil, err
	}
	defer f.Close()

	var data []byte
	var lastErr error
	for f.Next() {
		data, lastErr = io.ReadAll(io.LimitReader(f, limit))
		if lastErr == nil {
			return data, nil
		}
	}
	if lastErr == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return nil, lastErr
}

// Close closes the archive and every entry opened from it.
func (r *Reader) Close() error {
	if r.src == nil {
		return nil
	}
	for _, f := range r.File {
		f.Close()
	}
	var err error
	if r.ownedSrc != nil {
		err = r.ownedSrc.Close()
		r.ownedSrc = nil
	}
	r.src = nil
	return err
}

type readAtWrapper struct {
	io.ReadSeeker
}

func (wr *readAtWrapper) ReadAt(b []byte, off int64) (n int, err error) {
	if ra, ok := wr.ReadSeeker.(io.ReaderAt); ok {
		return ra.ReadAt(b, off)
	}
	oldPos, err := wr.Seek(0, io.SeekCurrent)
	if err != nil {
		return
	}
	if _, err = wr.Seek(off, io.SeekStart); err != nil {
		return
	}
	if n, err = wr.Read(b); err != nil {
		return
	}
	_, err = wr.Seek(oldPos, io.SeekStart)
	return
}

// Open opens the ZIP (or APK) at path for reading. When names is
// non-empty, only those entries (axml's callers pass the single
// manifest entry they asked for via --entry) are indexed; every other
// entry in the archive is skipped.
func Open(path string, names ...string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	zr, err := OpenReader(f, names...)
	if err != nil {
		f.Close()
		return nil, err
	}
	zr.ownedSrc = f
	return zr, nil
}

// OpenReader opens a ZIP from an already-open seekable source, falling
// back to a manual local-file-header scan when archive/zip rejects
// it. See Open for the names filter.
func OpenReader(src io.ReadSeeker, names ...string) (*Reader, error) {
	zr := &Reader{File: make(map[string]*File), src: src}
	if len(names) > 0 {
		zr.want = make(map[string]bool, len(names))
		for _, n := range names {
			zr.want[path.Clean(n)] = true
		}
	}
	f := &readAtWrapper{src}

	if zipinfo, err := tryReadZip(f); err == nil {
		for i, zf := range zipinfo.File {
			cl := path.Clean(zf.Name)
			if !zr.wants(cl) {
				continue
			}
			if zf.Method != zip.Store && zf.Method != zip.Deflate {
				switch zf.Name {
				case "AndroidManifest.xml", "resources.arsc":
					zipinfo.File[i].Method = zip.Store
					zipinfo.File[i].CompressedSize64 = zipinfo.File[i].UncompressedSize64
				default:
					zipinfo.File[i].Method = zip.Deflate
				}
			}
			if zr.File[cl] == nil {
				entry := &File{Name: cl, IsDir: zf.FileInfo().IsDir(), zipFile: f, zipEntry: zf}
				zr.File[cl] = entry
				zr.FilesOrdered = append(zr.FilesOrdered, entry)
			}
		}
		return zr, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if err := scanLocalHeaders(f, zr); err != nil {
		return nil, err
	}
	return zr, nil
}

func scanLocalHeaders(f *readAtWrapper, zr *Reader) error {
	for {
		off, err := findNextFileHeader(f)
		if off == -1 || err != nil {
			return err
		}

		var nameLen, extraLen, method uint16
		if _, err := f.Seek(off+8, io.SeekStart); err != nil {
			return err
		}
		if err := readUint16(f, &method); err != nil {
			return err
		}
		if _, err := f.Seek(off+26, io.SeekStart); err != nil {
			return err
		}
		if err := readUint16(f, &nameLen); err != nil {
			return err
		}
		if err := readUint16(f, &extraLen); err != nil {
			return err
		}

		buf := make([]byte, nameLen)
		if _, err := f.ReadAt(buf, off+30); err != nil {
			return err
		}
		fileName := path.Clean(string(buf))
		fileOffset := off + 30 + int64(nameLen) + int64(extraLen)

		if !zr.wants(fileName) {
			if _, err := f.Seek(off+4, io.SeekStart); err != nil {
				return err
			}
			continue
		}

		entry := zr.File[fileName]
		if entry == nil {
			entry = &File{Name: fileName, zipFile: f, curEntry: -1}
			zr.File[fileName] = entry
		}
		zr.FilesOrdered = append(zr.FilesOrdered, entry)
		entry.entries = append([]subEntry{{offset: fileOffset, method: method}}, entry.entries...)

		if _, err := f.Seek(off+4, io.SeekStart); err != nil {
			return err
		}
	}
}

func readUint16(f *readAtWrapper, v *uint16) error {
	var buf [2]byte
	if _, err := io.ReadFull(f, buf[:]); err != nil {
		return err
	}
	*v = uint16(buf[0]) | uint16(buf[1])<<8
	return nil
}

func tryReadZip(f *readAtWrapper) (r *zip.Reader, err error) {
	defer func() {
		if pn := recover(); pn != nil {
			err = fmt.Errorf("apkzip: %v", pn)
			r = nil
		}
	}()

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	r, err = zip.NewReader(f, size)
	if err != nil {
		return nil, err
	}
	r.RegisterDecompressor(zip.Deflate, newPooledFlateReader)
	return r, nil
}

func findNextFileHeader(f io.ReadSeeker) (offset int64, err error) {
	start, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1, err
	}
	defer func() {
		if _, serr := f.Seek(start, io.SeekStart); serr != nil && err == nil {
			err = serr
		}
	}()

	buf := make([]byte, 64*1024)
	sig := []byte{0x50, 0x4B, 0x03, 0x04}
	offset = start
	matched := 0

	for {
		n, err := f.Read(buf)
		if err != nil && err != io.EOF {
			return -1, err
		}
		if n == 0 {
			return -1, nil
		}
		for i := 0; i < n; i++ {
			if buf[i] == sig[matched] {
				matched++
				if matched == len(sig) {
					return offset + int64(i) - int64(len(sig)-1), nil
				}
			} else {
				matched = 0
			}
		}
		offset += int64(n)
	}
}

var flatePool sync.Pool

func newPooledFlateReader(r io.Reader) io.ReadCloser {
	if fr, ok := flatePool.Get().(io.ReadCloser); ok {
		fr.(flate.Resetter).Reset(r, nil)
		return &pooledFlateReader{fr: fr}
	}
	return &pooledFlateReader{fr: flate.NewReader(r)}
}

type pooledFlateReader struct {
	mu sync.Mutex
	fr io.ReadCloser
}

func (r *pooledFlateReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fr == nil {
		return 0, errors.New("apkzip: read after close")
	}
	return r.fr.Read(p)
}

func (r *pooledFlateReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fr == nil {
		return nil
	}
	err := r.fr.Close()
	flatePool.Put(r.fr)
	r.fr = nil
	return err
}
