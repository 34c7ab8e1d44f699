package kmerdb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const DefaultFlushThreshold = 4096

type Options struct {
	// Backend defaults to BoltBackend.
	Backend Backend

	Logger  *slog.Logger
	Verbose bool

	// IsTesting trades durability for speed.
	IsTesting bool
	MmapSize  int
	Timeout   time.Duration
	FileMode  fs.FileMode

	// Compression applies to blocks written by collections of this container.
	Compression Compression

	// FlushThreshold is the number of buffered items at which a collection
	// flushes on its own.
	FlushThreshold int

	// DeleteExisting removes name+suffix before opening and always creates
	// a fresh name+suffix artifact. A file at the bare name is neither
	// deleted nor opened, so nothing written earlier is visible.
	DeleteExisting bool

	// AutoRemove deletes the artifact when the container is closed.
	AutoRemove bool
}

func (o *Options) setDefaults() {
	if o.Backend == nil {
		o.Backend = BoltBackend{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Timeout == 0 {
		o.Timeout = 10 * time.Second
	}
	if o.FileMode == 0 {
		o.FileMode = 0666
	}
	if o.FlushThreshold <= 0 {
		o.FlushThreshold = DefaultFlushThreshold
	}
}

type containerState int32

const (
	stateOpen containerState = iota
	stateClosing
	stateClosed
)

// Container is one persisted artifact holding a namespace of groups and
// collections. It owns its storage handle from Open until Close.
//
// The namespace layout (groups, partitions, collections) should be created
// before parallel writers start; Open, Close and Remove must not run
// concurrently with namespace creation on the same container.
type Container struct {
	name    string
	path    string
	backend Backend
	storage Storage
	opt     Options
	logger  *slog.Logger
	root    *Group

	state atomic.Int32

	synchroOnce sync.Once
	synchro     *Synchronizer

	flushersLock sync.Mutex
	flushers     []flusher
}

type flusher interface {
	Flush() error
}

// Open opens the container named name, creating it if needed.
//
// With DeleteExisting, the artifact name+suffix is removed first and a new
// one is created. Otherwise name+suffix is opened if it exists, then the bare
// name, and a new name+suffix artifact is created if neither exists.
func Open(name string, opt Options) (*Container, error) {
	opt.setDefaults()
	backend := opt.Backend
	actual := name + backend.Suffix()

	c := &Container{
		name:    name,
		backend: backend,
		opt:     opt,
		logger:  opt.Logger,
	}
	c.root = &Group{container: c}

	var used string
	var created bool
	if opt.DeleteExisting {
		if err := backend.Remove(actual); err != nil {
			return nil, backendErrf(c, nil, err, "cannot remove existing artifact %s", actual)
		}
		used, created = actual, true
	} else if ok, err := backend.Exists(actual); err != nil {
		return nil, backendErrf(c, nil, err, "cannot check %s", actual)
	} else if ok {
		used = actual
	} else if ok, err := backend.Exists(name); err != nil {
		return nil, backendErrf(c, nil, err, "cannot check %s", name)
	} else if ok {
		used = name
	} else {
		used, created = actual, true
	}

	storage, err := backend.Open(used, &c.opt)
	if err != nil {
		return nil, backendErrf(c, nil, err, "cannot open %s", used)
	}
	c.path = used
	c.storage = storage
	c.state.Store(int32(stateOpen))

	c.logger.LogAttrs(context.Background(), slog.LevelDebug, "kmerdb: opened container",
		slog.String("name", name),
		slog.String("path", used),
		slog.Bool("created", created))
	return c, nil
}

// OpenTemp creates a uniquely named container in dir that is deleted on Close.
func OpenTemp(dir string, opt Options) (*Container, error) {
	opt.DeleteExisting = true
	opt.AutoRemove = true
	return Open(filepath.Join(dir, "kmerdb-"+uuid.NewString()), opt)
}

// Name returns the logical name the container was opened with.
func (c *Container) Name() string { return c.name }

// Path returns the name of the artifact actually opened.
func (c *Container) Path() string { return c.path }

// Root returns the root group. It always exists.
func (c *Container) Root() *Group { return c.root }

func (c *Container) Logger() *slog.Logger { return c.logger }

func (c *Container) IsClosed() bool {
	return containerState(c.state.Load()) == stateClosed
}

// Synchronizer returns the lock guarding this container's namespace. It is
// created on first use.
func (c *Container) Synchronizer() *Synchronizer {
	c.synchroOnce.Do(func() {
		c.synchro = NewSynchronizer()
	})
	return c.synchro
}

// Close flushes every collection created through the container, releases
// the storage handle, and removes the artifact if AutoRemove is set. Closing
// a closed container does nothing.
func (c *Container) Close() error {
	if !c.state.CompareAndSwap(int32(stateOpen), int32(stateClosing)) {
		return nil
	}

	c.flushersLock.Lock()
	flushers := c.flushers
	c.flushers = nil
	c.flushersLock.Unlock()

	var errs []error
	for _, f := range flushers {
		if err := f.Flush(); err != nil {
			errs = append(errs, err)
		}
	}

	c.state.Store(int32(stateClosed))
	if err := c.storage.Close(); err != nil {
		errs = append(errs, backendErrf(c, nil, err, "cannot close %s", c.path))
	}
	if c.opt.AutoRemove {
		if err := c.remove(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Remove closes the container if needed and deletes its artifact. Removing
// an already removed container does nothing.
func (c *Container) Remove() error {
	err := c.Close()
	if rerr := c.remove(); rerr != nil {
		return errors.Join(err, rerr)
	}
	return err
}

func (c *Container) remove() error {
	if err := c.backend.Remove(c.path); err != nil {
		return backendErrf(c, nil, err, "cannot remove %s", c.path)
	}
	c.logger.LogAttrs(context.Background(), slog.LevelInfo, "kmerdb: removed container",
		slog.String("path", c.path))
	return nil
}

func (c *Container) register(f flusher) {
	c.flushersLock.Lock()
	defer c.flushersLock.Unlock()
	c.flushers = append(c.flushers, f)
}

func (c *Container) unregister(f flusher) {
	c.flushersLock.Lock()
	defer c.flushersLock.Unlock()
	for i, g := range c.flushers {
		if g == f {
			n := len(c.flushers)
			c.flushers[i] = c.flushers[n-1]
			c.flushers[n-1] = nil // ensure it gets collected
			c.flushers = c.flushers[:n-1]
			return
		}
	}
}

func (c *Container) activeStorage() (Storage, error) {
	if containerState(c.state.Load()) == stateClosed {
		return nil, ErrClosed
	}
	return c.storage, nil
}

func (c *Container) view(f func(tx StorageTx) error) error {
	s, err := c.activeStorage()
	if err != nil {
		return err
	}
	return view(s, f)
}

func (c *Container) update(f func(tx StorageTx) error) error {
	s, err := c.activeStorage()
	if err != nil {
		return err
	}
	return update(s, f)
}

func (c *Container) batch(f func(tx StorageTx) error) error {
	s, err := c.activeStorage()
	if err != nil {
		return err
	}
	return s.Batch(f)
}

// ensureBucket creates the bucket at path unless it already exists, marking
// it with kind. An existing bucket must have the same kind. The lock is held
// across both the check and the creation.
func (c *Container) ensureBucket(lock sync.Locker, path []string, kind nodeKind) error {
	if lock == nil {
		lock = c.Synchronizer()
	}
	lock.Lock()
	defer lock.Unlock()

	var created bool
	err := c.update(func(tx StorageTx) error {
		if b := tx.Bucket(path); b != nil {
			if actual := bucketKind(b); actual != kind {
				return fmt.Errorf("%w: %s exists, wanted %s", ErrKindMismatch, actual, kind)
			}
			return nil
		}
		b, err := tx.CreateBucket(path)
		if err != nil {
			return err
		}
		if kind != kindGroup {
			if err := b.Put(kindKey, []byte(kind)); err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	if errors.Is(err, ErrKindMismatch) {
		return pathErrf(c, path, nil, err, "cannot create %s", kind)
	} else if err != nil {
		return backendErrf(c, path, err, "cannot create %s", kind)
	}
	if created {
		c.logger.LogAttrs(context.Background(), slog.LevelDebug, "kmerdb: created",
			slog.String("container", c.name),
			slog.String("path", joinPath(path)),
			slog.String("kind", kind.String()))
	}
	return nil
}

func (c *Container) deleteBucket(lock sync.Locker, path []string) error {
	if lock == nil {
		lock = c.Synchronizer()
	}
	lock.Lock()
	defer lock.Unlock()

	err := c.update(func(tx StorageTx) error {
		err := tx.DeleteBucket(path)
		if err == ErrBucketNotFound {
			return nil
		}
		return err
	})
	if err != nil {
		return backendErrf(c, path, err, "cannot delete")
	}
	return nil
}
