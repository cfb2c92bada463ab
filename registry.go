package qmkontext

import "sync"

// MaxCommands is the number of handler slots, one per CommandID.
const MaxCommands = 256

// LengthPolicy controls how Dispatch treats the declared report length.
type LengthPolicy int

const (
	// LengthIgnored consumes the first two bytes of the buffer and never
	// consults the declared length.
	LengthIgnored LengthPolicy = iota
	// LengthChecked rejects reports whose declared length is below 2 or
	// exceeds the buffer.
	LengthChecked
)

// MalformedHandler observes reports rejected by Dispatch.
type MalformedHandler func(data []byte, err error)

type RegistryOption func(*Registry)

// WithLengthPolicy sets the declared length policy. Defaults to LengthIgnored.
func WithLengthPolicy(p LengthPolicy) RegistryOption {
	return func(r *Registry) {
		r.lengthPolicy = p
	}
}

// WithOnMalformed sets a callback invoked for every rejected report.
func WithOnMalformed(h MalformedHandler) RegistryOption {
	return func(r *Registry) {
		r.onMalformed = h
	}
}

// Registry is the keyboard side command table. Every slot holds a handler;
// slots without a registration hold the unhandled fallback.
type Registry struct {
	mu           sync.RWMutex
	handlers     [MaxCommands]Handler
	lengthPolicy LengthPolicy
	onMalformed  MalformedHandler
}

// NewRegistry returns an initialized registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	r.Init()
	return r
}

func unhandled(byte) bool {
	return false
}

// Init resets every slot to the unhandled fallback, dropping all
// registrations.
func (r *Registry) Init() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.handlers {
		r.handlers[i] = unhandled
	}
}

// Register binds h to id, replacing any previous handler. A nil handler
// restores the fallback.
func (r *Registry) Register(id CommandID, h Handler) {
	if h == nil {
		h = unhandled
	}
	r.mu.Lock()
	r.handlers[id] = h
	r.mu.Unlock()
}

// Dispatch runs the handler registered for data[0] with data[1] as payload
// and returns its result. Unregistered commands and rejected reports return
// false.
func (r *Registry) Dispatch(data []byte, length int) bool {
	handled, _ := r.DispatchReport(data, length)
	return handled
}

// DispatchReport is Dispatch with the rejection reason reported as an error.
func (r *Registry) DispatchReport(data []byte, length int) (bool, error) {
	if err := r.validate(data, length); err != nil {
		if r.onMalformed != nil {
			r.onMalformed(data, err)
		}
		return false, err
	}

	r.mu.RLock()
	h := r.handlers[data[0]]
	r.mu.RUnlock()

	// zero value registry
	if h == nil {
		h = unhandled
	}
	return h(data[1]), nil
}

func (r *Registry) validate(data []byte, length int) error {
	if len(data) < 2 {
		return ErrShortReport
	}
	if r.lengthPolicy == LengthChecked && (length < 2 || length > len(data)) {
		return ErrLengthMismatch
	}
	return nil
}
