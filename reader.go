// Package mmdb reads MaxMind DB (.mmdb) files: an immutable, memory-
// mappable binary format that maps IP address prefixes onto structured
// records via a packed binary search tree and a self-describing data
// section.
//
// # Basic usage
//
//	r, err := mmdb.MapFile("GeoLite2-City.mmdb")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer r.Close()
//
//	addr := ipaddr.FromNetIP(netip.MustParseAddr("81.2.69.142"))
//	var record struct {
//		Country struct {
//			ISOCode string `mmdb:"iso_code"`
//		} `mmdb:"country"`
//	}
//	found, network, err := r.Lookup(addr, &record, nil)
//
// # Thread safety
//
// Lookup, LookupAny, LookupOffset, Within and Verify are safe for
// concurrent use: they do not mutate the Reader's buffer or Metadata.
// Close does clear the buffer and must not run concurrently with them. A
// WithinIterator is not safe for concurrent use.
package mmdb

import (
	"bytes"
	"io"
	"os"
	"runtime"

	"github.com/geoindex/mmdbreader/ipaddr"
	"github.com/geoindex/mmdbreader/mmdbdecode"
)

var metadataStartMarker = []byte("\xAB\xCD\xEFMaxMind.com")

// Reader holds a parsed MaxMind DB file: the mapped (or heap-loaded)
// buffer, its decoded Metadata, and the tree-walker state derived from it.
type Reader struct {
	buffer        []byte
	decoder       mmdbdecode.Decoder
	Metadata      Metadata
	ipv4Start     uint
	hasMappedFile bool
}

// MapFile opens path and memory-maps it read-only (spec §4.6 "mmap").
// Close releases the mapping. If the mmap call fails, the file is read
// fully into a heap buffer instead.
func MapFile(path string, options ...ReaderOption) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only fd, error not actionable here

	size, err := fileSize(f)
	if err != nil {
		return nil, err
	}

	data, err := mmap(int(f.Fd()), size)
	if err != nil {
		data, err = openFallback(f, size)
		if err != nil {
			return nil, err
		}
		return FromBytes(data, options...)
	}

	r, err := FromBytes(data, options...)
	if err != nil {
		_ = munmap(data)
		return nil, err
	}
	r.hasMappedFile = true
	runtime.SetFinalizer(r, (*Reader).Close)
	return r, nil
}

// Open reads path into a heap buffer bounded by maxSize bytes (spec §4.6
// "open"), for platforms or callers that cannot or do not want mmap.
func Open(path string, maxSize int64, options ...ReaderOption) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck // read-only fd, error not actionable here

	size, err := fileSize(f)
	if err != nil {
		return nil, err
	}
	if int64(size) > maxSize {
		size = int(maxSize)
	}

	data, err := openFallback(f, size)
	if err != nil {
		return nil, err
	}
	return FromBytes(data, options...)
}

func fileSize(f *os.File) (int, error) {
	stats, err := f.Stat()
	if err != nil {
		return 0, err
	}
	size64 := stats.Size()
	if size64 == 0 {
		return 0, &os.PathError{Op: "open", Path: f.Name(), Err: errFileEmpty{}}
	}
	size := int(size64)
	if int64(size) != size64 {
		return 0, &os.PathError{Op: "open", Path: f.Name(), Err: errFileTooLarge{}}
	}
	return size, nil
}

type errFileEmpty struct{}

func (errFileEmpty) Error() string { return "file is empty" }

type errFileTooLarge struct{}

func (errFileTooLarge) Error() string { return "file too large to map" }

func openFallback(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	_, err := io.ReadFull(f, data)
	return data, err
}

// FromBytes builds a Reader directly from an in-memory MaxMind DB image,
// per spec §4.6's three common steps shared by open and mmap: locate the
// metadata marker, decode Metadata, and compute the data-section offset
// and ipv4Start.
func FromBytes(buffer []byte, options ...ReaderOption) (*Reader, error) {
	opts := &readerOptions{}
	for _, option := range options {
		option(opts)
	}

	metadataStart := bytes.LastIndex(buffer, metadataStartMarker)
	if metadataStart == -1 {
		return nil, ErrMetadataStartNotFound
	}
	metadataStart += len(metadataStartMarker)

	var metadata Metadata
	metadataDecoder := mmdbdecode.New(buffer[metadataStart:])
	if err := metadataDecoder.Decode(0, &metadata, mmdbdecode.NewArena(), nil); err != nil {
		return nil, err
	}

	searchTreeSize := metadata.NodeCount * uint(metadata.RecordSize/4)
	dataSectionStart := searchTreeSize + dataSectionSeparatorSize
	dataSectionEnd := uint(metadataStart - len(metadataStartMarker))
	if dataSectionStart > dataSectionEnd {
		return nil, CorruptedTreeError{Reason: "data section offset exceeds file size"}
	}

	r := &Reader{
		buffer:   buffer,
		decoder:  mmdbdecode.New(buffer[dataSectionStart:dataSectionEnd]),
		Metadata: metadata,
	}
	if err := r.computeIPv4Start(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close releases the mapping (if memory-mapped) or simply drops the
// reference to the heap buffer. After Close, any byte slices returned
// from earlier decodes that alias the buffer must not be dereferenced.
func (r *Reader) Close() error {
	var err error
	if r.hasMappedFile {
		runtime.SetFinalizer(r, nil)
		r.hasMappedFile = false
		err = munmap(r.buffer)
	}
	r.buffer = nil
	return err
}

// Lookup resolves addr to its record, decoding it into target per opts'
// projection. It reports found=false (with a nil error) when the tree has
// no record for addr, mirroring spec §4.6's lookup returning None.
func (r *Reader) Lookup(addr ipaddr.Address, target any, opts *Options) (found bool, network ipaddr.Network, err error) {
	if r.buffer == nil {
		return false, ipaddr.Network{}, ErrClosed
	}
	node, prefixLen, err := r.findAddress(addr)
	if err != nil {
		return false, ipaddr.Network{}, err
	}
	network = addr.Network(prefixLen)
	if node == 0 {
		return false, network, nil
	}

	offset, err := r.resolveDataOffset(node)
	if err != nil {
		return false, network, err
	}
	if target == nil {
		return true, network, nil
	}
	if err := r.decoder.Decode(offset, target, mmdbdecode.NewArena(), opts.only()); err != nil {
		return false, network, err
	}
	return true, network, nil
}

// LookupAny behaves like Lookup but decodes into the dynamic fallback
// value instead of a caller-supplied struct.
func (r *Reader) LookupAny(addr ipaddr.Address, opts *Options) (found bool, network ipaddr.Network, value mmdbdecode.Any, err error) {
	if r.buffer == nil {
		return false, ipaddr.Network{}, mmdbdecode.Any{}, ErrClosed
	}
	node, prefixLen, err := r.findAddress(addr)
	if err != nil {
		return false, ipaddr.Network{}, mmdbdecode.Any{}, err
	}
	network = addr.Network(prefixLen)
	if node == 0 {
		return false, network, mmdbdecode.Any{}, nil
	}
	offset, err := r.resolveDataOffset(node)
	if err != nil {
		return false, network, mmdbdecode.Any{}, err
	}
	value, err = r.decoder.DecodeAny(offset, mmdbdecode.NewArena(), opts.only())
	if err != nil {
		return false, network, mmdbdecode.Any{}, err
	}
	return true, network, value, nil
}

// resolveDataOffset converts a search-tree record pointer into an offset
// within r.decoder's data section, validating it lands in bounds.
func (r *Reader) resolveDataOffset(node uint) (uint, error) {
	if node <= r.Metadata.NodeCount {
		return 0, CorruptedTreeError{Reason: "record pointer does not exceed node_count"}
	}
	offset := node - r.Metadata.NodeCount - dataSectionSeparatorSize
	if offset >= uint(r.decoder.Len()) {
		return 0, CorruptedTreeError{Reason: "data pointer resolves outside the data section"}
	}
	return offset, nil
}
