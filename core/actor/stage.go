package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/stage-go/core/address"
	"github.com/codewandler/stage-go/core/config"
	"github.com/codewandler/stage-go/core/scheduler"
)

// Options configures a stage. Zero-value fields get defaults.
type Options struct {
	Context        context.Context
	Logger         *slog.Logger
	AddressFactory address.Factory
	Config         *config.Config
	Metrics        StageMetrics
	// MaxConcurrentTasks caps the scheduler; 0 or negative is unlimited.
	MaxConcurrentTasks int
}

// Stage is the runtime facade: it creates actors, indexes them in the
// directory, wires parents, children and supervisors, routes failures, runs
// phased shutdown, and holds the process-wide value registry. Root
// initialization is lazy: the first actor that needs a default parent
// triggers creation of the private root, then the public root.
type Stage struct {
	id          string
	ctx         context.Context
	cancel      context.CancelFunc
	log         *slog.Logger
	addresses   address.Factory
	cfg         *config.Config
	directory   *Directory
	deadLetters *DeadLetters
	sched       *scheduler.Scheduler
	metrics     StageMetrics
	bootstrap   *bootstrapSupervisor

	mu               sync.Mutex
	values           map[string]any
	supervisors      map[string]Supervisor
	supervisorActors map[string]*Proxy // address → registered supervisor actor

	rootsOnce   sync.Once
	privateRoot *Proxy
	publicRoot  *Proxy

	closing atomic.Bool
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a stage.
func New(opts Options) *Stage {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel(opts.Config.LogLevel),
		}))
	}
	if opts.AddressFactory == nil {
		opts.AddressFactory = address.NewUUIDFactory()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopStageMetrics()
	}

	id := fmt.Sprintf("stage-%s", gonanoid.Must(6))
	log := opts.Logger.With(slog.String("stage", id))

	ctx, cancel := context.WithCancel(opts.Context)

	s := &Stage{
		id:        id,
		ctx:       ctx,
		cancel:    cancel,
		log:       log,
		addresses: opts.AddressFactory,
		cfg:       opts.Config,
		directory: NewDirectory(DirectoryOptions{
			Buckets:    opts.Config.Directory.Buckets,
			BucketHint: opts.Config.Directory.BucketHint,
		}),
		deadLetters: NewDeadLetters(log),
		sched: scheduler.New(scheduler.Options{
			Context:            ctx,
			Logger:             log,
			MaxConcurrentTasks: opts.MaxConcurrentTasks,
		}),
		metrics:          opts.Metrics,
		bootstrap:        &bootstrapSupervisor{log: log},
		values:           make(map[string]any),
		supervisors:      make(map[string]Supervisor),
		supervisorActors: make(map[string]*Proxy),
	}

	// the bootstrap slot for the private root; used only until the root
	// itself is in the directory
	s.supervisors[PrivateRootName] = s.bootstrap

	return s
}

var (
	defaultOnce  sync.Once
	defaultStage *Stage
)

// Default returns the process-wide stage, creating it on first use.
func Default() *Stage {
	defaultOnce.Do(func() {
		defaultStage = New(Options{})
	})
	return defaultStage
}

// ID returns the stage's instance id.
func (s *Stage) ID() string { return s.id }

// Logger returns the stage logger.
func (s *Stage) Logger() *slog.Logger { return s.log }

// Scheduler returns the stage's background-task scheduler.
func (s *Stage) Scheduler() *scheduler.Scheduler { return s.sched }

// DeadLetters returns the stage's dead-letter sink.
func (s *Stage) DeadLetters() *DeadLetters { return s.deadLetters }

// Directory returns the actor directory.
func (s *Stage) Directory() *Directory { return s.directory }

// Address mints a fresh address.
func (s *Stage) Address() address.Address { return s.addresses.Next() }

// === spawning ===

type spawnConfig struct {
	parent         *Proxy
	supervisorName string
	mailbox        *Mailbox
	parameters     []any
	root           bool
	protected      bool
}

// SpawnOption configures one ActorFor call.
type SpawnOption func(*spawnConfig)

// WithParent sets the parent; unset means the public root.
func WithParent(p *Proxy) SpawnOption {
	return func(c *spawnConfig) { c.parent = p }
}

// WithSupervisor names the actor's supervisor; unset means "default".
func WithSupervisor(name string) SpawnOption {
	return func(c *spawnConfig) { c.supervisorName = name }
}

// WithMailbox supplies a custom mailbox, e.g. a bounded one.
func WithMailbox(m *Mailbox) SpawnOption {
	return func(c *spawnConfig) { c.mailbox = m }
}

// WithParameters sets the definition's parameter vector.
func WithParameters(parameters ...any) SpawnOption {
	return func(c *spawnConfig) { c.parameters = parameters }
}

func withRoot(protected bool) SpawnOption {
	return func(c *spawnConfig) {
		c.root = true
		c.protected = protected
	}
}

// NewMailbox creates a mailbox pre-wired to the stage's dead-letter sink,
// logger and metrics.
func (s *Stage) NewMailbox(capacity int, overflow OverflowPolicy) *Mailbox {
	return NewMailbox(MailboxOptions{
		Logger:      s.log,
		DeadLetters: s.deadLetters,
		Metrics:     s.metrics,
		Capacity:    capacity,
		Overflow:    overflow,
	})
}

func (s *Stage) defaultMailbox() *Mailbox {
	overflow, err := ParseOverflowPolicy(s.cfg.Mailbox.Overflow)
	if err != nil {
		overflow = Reject
	}
	return s.NewMailbox(s.cfg.Mailbox.Capacity, overflow)
}

// ActorFor creates an actor from the protocol, registers it, runs its
// before_start hook synchronously and enqueues its start activity, then
// returns the only handle external code may use.
func (s *Stage) ActorFor(p Protocol, opts ...SpawnOption) (*Proxy, error) {
	cfg := spawnConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	if !cfg.root && reservedTypeName(p.Type) {
		return nil, fmt.Errorf("type name %q is reserved", p.Type)
	}
	if !cfg.root && cfg.parent == nil {
		s.initRoots()
		cfg.parent = s.publicRoot
	}
	if cfg.supervisorName == "" {
		cfg.supervisorName = DefaultSupervisorName
	}

	// address is newly generated regardless of any address carried in a
	// caller-built definition
	addr := s.Address()
	def := NewDefinition(p.Type, cfg.parameters...).withAddress(addr)

	mb := cfg.mailbox
	if mb == nil {
		mb = s.defaultMailbox()
	}

	log := s.log.With(
		slog.String("actor", addr.String()),
		slog.String("type", p.Type),
	)

	env := &Environment{
		stage:          s,
		address:        addr,
		definition:     def,
		parent:         cfg.parent,
		mailbox:        mb,
		log:            log,
		supervisorName: cfg.supervisorName,
		protocol:       p,
		protected:      cfg.protected,
		execCtx:        NewExecutionContext(),
		msgCtx:         EmptyExecutionContext(),
	}
	env.setState(Starting)

	a, err := p.Instantiate(def)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate %s: %w", p.Type, err)
	}
	binder, ok := a.(environmentBinder)
	if !ok {
		return nil, fmt.Errorf("%s does not embed BaseActor", p.Type)
	}
	binder.bindEnvironment(env)
	env.setActor(a)

	proxy := &Proxy{env: env, mailbox: mb}
	env.self = proxy

	s.directory.Set(proxy)
	if cfg.parent != nil {
		cfg.parent.env.addChild(proxy)
	}
	s.metrics.ActorSpawned(p.Type)

	// before_start runs before the mailbox dispatches anything; a failure
	// is wrapped like a delivery failure and routed to supervision
	if hookErr := env.runHook("before_start", a.BeforeStart); hookErr != nil {
		wrapped := fmt.Errorf("before_start failed: %w", hookErr)
		mb.Suspend()
		env.setState(Suspended)
		s.HandleFailureOf(newSupervised(env, wrapped))
	} else {
		env.setState(Running)
	}

	// start is the first queued activity; its failure routes through the
	// normal delivery path
	proxy.Invoke(Representation("start"), func(act Actor) (any, error) {
		return nil, act.Start()
	})

	return proxy, nil
}

// ActorOf looks a handle up by address.
func (s *Stage) ActorOf(addr address.Address) (*Proxy, bool) {
	return s.directory.Get(addr)
}

// ActorProxyFor builds a proxy over an existing actor and a mailbox without
// touching the directory. This is the self-send path.
func (s *Stage) ActorProxyFor(a Actor, mb *Mailbox) *Proxy {
	h, ok := a.(interface{ Environment() *Environment })
	if !ok {
		return nil
	}
	return &Proxy{env: h.Environment(), mailbox: mb}
}

func (s *Stage) initRoots() {
	s.rootsOnce.Do(func() {
		var err error
		s.privateRoot, err = s.ActorFor(privateRootProtocol(),
			withRoot(true),
			WithSupervisor(PrivateRootName),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create private root: %v", err))
		}
		s.publicRoot, err = s.ActorFor(publicRootProtocol(),
			withRoot(false),
			WithParent(s.privateRoot),
			WithSupervisor(PrivateRootName),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create public root: %v", err))
		}
		// user actors name their supervisor "default"; it is the public
		// root itself
		s.directory.IndexType(DefaultSupervisorName, s.publicRoot)
	})
}

// === supervision ===

// RegisterSupervisor registers a supervisor under a name actors can refer
// to. Wrap an actor-backed supervisor with [NewActorSupervisor] first.
func (s *Stage) RegisterSupervisor(name string, sup Supervisor) {
	s.mu.Lock()
	s.supervisors[name] = sup
	if as, ok := sup.(*actorSupervisor); ok {
		s.supervisorActors[as.p.Address().String()] = as.p
	}
	s.mu.Unlock()
}

// SupervisorNamed resolves a supervisor name the same way failing actors
// do: the directory's type index first, then registrations, then the
// bootstrap fallback.
func (s *Stage) SupervisorNamed(name string) Supervisor {
	return s.supervisorNamed(name)
}

func (s *Stage) supervisorNamed(name string) Supervisor {
	if p, ok := s.directory.FindByType(name); ok {
		if _, ok := p.env.Actor().(Supervisor); ok {
			return &actorSupervisor{p: p}
		}
	}

	s.mu.Lock()
	sup, ok := s.supervisors[name]
	s.mu.Unlock()
	if ok {
		return sup
	}

	s.log.Warn("no supervisor registered, falling back to bootstrap", slog.String("name", name))
	return s.bootstrap
}

// HandleFailureOf routes a failure to the failed actor's supervisor. A
// failure of the notification itself is logged and not re-routed.
func (s *Stage) HandleFailureOf(supervised *Supervised) {
	s.metrics.ActorFailure(supervised.env.definition.Type())
	sup := supervised.env.Supervisor()
	s.informSupervisor(sup, supervised)
}

func (s *Stage) informSupervisor(sup Supervisor, supervised *Supervised) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("supervisor failed handling failure",
				slog.String("actor", supervised.Address().String()),
				slog.Any("recovered", r),
			)
		}
	}()
	supervised.handler = sup
	sup.Inform(supervised.err, supervised)
}

// === value registry ===

// ErrValueNotRegistered is wrapped by RegisteredValue for absent names.
var ErrValueNotRegistered = errors.New("value not registered")

// RegisterValue stores a process-wide value, overwriting any prior entry.
// The caller owns the value's lifecycle.
func (s *Stage) RegisterValue(name string, v any) {
	s.mu.Lock()
	s.values[name] = v
	s.mu.Unlock()
}

// RegisteredValue returns the value stored under name, or an error when
// absent.
func (s *Stage) RegisteredValue(name string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrValueNotRegistered, name)
	}
	return v, nil
}

// DeregisterValue removes and returns the value stored under name.
func (s *Stage) DeregisterValue(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[name]
	delete(s.values, name)
	return v, ok
}

// === shutdown ===

// Close stops all actors in three phases: user actors first, then
// registered supervisors, then the roots, public before private. Errors are
// logged and iteration continues. Close is idempotent.
func (s *Stage) Close() {
	if !s.closing.CompareAndSwap(false, true) {
		return
	}
	s.log.Info("stage closing")

	s.mu.Lock()
	supervisorAddrs := make(map[string]struct{}, len(s.supervisorActors))
	for addr := range s.supervisorActors {
		supervisorAddrs[addr] = struct{}{}
	}
	s.mu.Unlock()

	isRoot := func(p *Proxy) bool {
		return (s.privateRoot != nil && p.Equals(s.privateRoot)) ||
			(s.publicRoot != nil && p.Equals(s.publicRoot))
	}
	isSupervisor := func(p *Proxy) bool {
		_, ok := supervisorAddrs[p.Address().String()]
		return ok
	}

	var userActors, supervisors []*Proxy
	for _, p := range s.directory.All() {
		switch {
		case isRoot(p):
		case isSupervisor(p):
			supervisors = append(supervisors, p)
		default:
			userActors = append(userActors, p)
		}
	}

	s.stopAll(userActors)
	s.stopAll(supervisors)
	if s.publicRoot != nil {
		s.stopAll([]*Proxy{s.publicRoot})
	}
	if s.privateRoot != nil {
		s.stopAll([]*Proxy{s.privateRoot})
	}

	s.cancel()
	s.log.Info("stage closed")
}

func (s *Stage) stopAll(proxies []*Proxy) {
	for _, p := range proxies {
		if _, err := p.Stop().Await(s.ctx); err != nil {
			s.log.Error("failed to stop actor",
				slog.String("actor", p.Address().String()),
				slog.Any("error", err),
			)
		}
	}
}
