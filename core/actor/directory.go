package actor

import (
	"sync"

	"github.com/codewandler/stage-go/core/address"
	"github.com/codewandler/stage-go/internal/shard"
)

// DirectoryOptions sizes the sharded directory.
type DirectoryOptions struct {
	// Buckets is the shard count; bucket selection is hash(address) mod
	// Buckets.
	Buckets int
	// BucketHint pre-sizes each bucket map.
	BucketHint int
}

type dirBucket struct {
	mu sync.RWMutex
	m  map[string]*Proxy
}

// Directory maps addresses to actor handles, sharded so no single map grows
// unbounded, plus a type-name index used by supervision routing and root
// discovery. Every live actor appears in exactly one bucket; a type name
// maps to the last actor registered under it.
type Directory struct {
	buckets []*dirBucket

	typesMu sync.RWMutex
	types   map[string]*Proxy
}

// NewDirectory creates a directory. Zero-value options default to 32 buckets
// with a hint of 32.
func NewDirectory(opts DirectoryOptions) *Directory {
	if opts.Buckets <= 0 {
		opts.Buckets = 32
	}
	if opts.BucketHint <= 0 {
		opts.BucketHint = 32
	}
	buckets := make([]*dirBucket, opts.Buckets)
	for i := range buckets {
		buckets[i] = &dirBucket{m: make(map[string]*Proxy, opts.BucketHint)}
	}
	return &Directory{
		buckets: buckets,
		types:   make(map[string]*Proxy),
	}
}

func (d *Directory) bucketFor(addr address.Address) *dirBucket {
	return d.buckets[shard.ForHash(addr.Hash(), len(d.buckets))]
}

// Set registers a handle under its address and indexes its type name,
// last-writer-wins.
func (d *Directory) Set(p *Proxy) {
	b := d.bucketFor(p.Address())
	b.mu.Lock()
	b.m[p.Address().String()] = p
	b.mu.Unlock()

	d.IndexType(p.Type(), p)
}

// Get looks a handle up by address.
func (d *Directory) Get(addr address.Address) (*Proxy, bool) {
	b := d.bucketFor(addr)
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.m[addr.String()]
	return p, ok
}

// Remove drops the handle and clears its type-index entry if it still points
// at the same actor.
func (d *Directory) Remove(addr address.Address) {
	b := d.bucketFor(addr)
	b.mu.Lock()
	p, ok := b.m[addr.String()]
	delete(b.m, addr.String())
	b.mu.Unlock()

	if !ok {
		return
	}

	d.typesMu.Lock()
	for name, indexed := range d.types {
		if indexed == p {
			delete(d.types, name)
		}
	}
	d.typesMu.Unlock()
}

// FindByType resolves a type name to a handle.
func (d *Directory) FindByType(name string) (*Proxy, bool) {
	d.typesMu.RLock()
	defer d.typesMu.RUnlock()
	p, ok := d.types[name]
	return p, ok
}

// IndexType registers a handle under an extra name, e.g. the "default"
// supervisor alias of the public root.
func (d *Directory) IndexType(name string, p *Proxy) {
	d.typesMu.Lock()
	d.types[name] = p
	d.typesMu.Unlock()
}

// Size counts live actors across all buckets.
func (d *Directory) Size() int {
	n := 0
	for _, b := range d.buckets {
		b.mu.RLock()
		n += len(b.m)
		b.mu.RUnlock()
	}
	return n
}

// All returns every registered handle.
func (d *Directory) All() []*Proxy {
	var out []*Proxy
	for _, b := range d.buckets {
		b.mu.RLock()
		for _, p := range b.m {
			out = append(out, p)
		}
		b.mu.RUnlock()
	}
	return out
}
