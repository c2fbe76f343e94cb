package kb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/signalsfoundry/worldframe/model"
)

var (
	ErrBodyExists   = errors.New("body already exists")
	ErrBodyNotFound = errors.New("body not found")
)

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventBodyAdded EventType = iota
	EventEnvironmentUpdated
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type        EventType
	Body        model.BodyDefinition
	Environment model.WorldEnvDescriptor
}

// DescriptorStore is an in-memory, thread-safe store for body definitions
// and their world environment descriptors.
type DescriptorStore struct {
	mu sync.RWMutex

	bodies map[model.BodyID]*model.BodyDefinition
	envs   map[model.BodyID]model.WorldEnvDescriptor

	nextSub int
	subs    map[int]func(Event)
}

// NewDescriptorStore constructs an empty store.
func NewDescriptorStore() *DescriptorStore {
	return &DescriptorStore{
		bodies: make(map[model.BodyID]*model.BodyDefinition),
		envs:   make(map[model.BodyID]model.WorldEnvDescriptor),
		subs:   make(map[int]func(Event)),
	}
}

// AddBody adds a new body definition. It returns an error if the ID already exists.
func (s *DescriptorStore) AddBody(b *model.BodyDefinition) error {
	if b == nil || b.ID == "" {
		return fmt.Errorf("body definition requires an ID")
	}
	s.mu.Lock()
	if _, exists := s.bodies[b.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrBodyExists, b.ID)
	}
	cp := *b
	s.bodies[b.ID] = &cp
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.notify(subs, Event{Type: EventBodyAdded, Body: cp})
	return nil
}

// GetBody returns a copy of the body with the given ID.
func (s *DescriptorStore) GetBody(id model.BodyID) (model.BodyDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bodies[id]
	if !ok {
		return model.BodyDefinition{}, fmt.Errorf("%w: %q", ErrBodyNotFound, id)
	}
	return *b, nil
}

// ListBodies returns a snapshot of all bodies sorted by ID.
func (s *DescriptorStore) ListBodies() []model.BodyDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]model.BodyDefinition, 0, len(s.bodies))
	for _, b := range s.bodies {
		res = append(res, *b)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// PutEnvironment validates and stores the environment of a known body, then
// notifies subscribers.
func (s *DescriptorStore) PutEnvironment(id model.BodyID, env model.WorldEnvDescriptor) error {
	if err := env.Validate(); err != nil {
		return fmt.Errorf("environment for %q: %w", id, err)
	}
	s.mu.Lock()
	b, ok := s.bodies[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrBodyNotFound, id)
	}
	s.envs[id] = env
	event := Event{Type: EventEnvironmentUpdated, Body: *b, Environment: env}
	subs := s.subscribersLocked()
	s.mu.Unlock()

	s.notify(subs, event)
	return nil
}

// Environment returns the stored environment of a body.
func (s *DescriptorStore) Environment(id model.BodyID) (model.WorldEnvDescriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	env, ok := s.envs[id]
	return env, ok
}

// EnvironmentOrDefault returns the stored environment of a body, or the
// Earth preset when none was registered.
func (s *DescriptorStore) EnvironmentOrDefault(id model.BodyID) model.WorldEnvDescriptor {
	if env, ok := s.Environment(id); ok {
		return env
	}
	return model.EarthV0()
}

// Space is shorthand for EnvironmentOrDefault(id).Space.
func (s *DescriptorStore) Space(id model.BodyID) model.WorldSpace {
	return s.EnvironmentOrDefault(id).Space
}

// Subscribe registers a callback for store events. It returns an unsubscribe function.
func (s *DescriptorStore) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *DescriptorStore) subscribersLocked() []func(Event) {
	keys := make([]int, 0, len(s.subs))
	for k := range s.subs {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]func(Event), 0, len(keys))
	for _, k := range keys {
		out = append(out, s.subs[k])
	}
	return out
}

// Notify subscribers outside the lock to avoid deadlocks.
func (s *DescriptorStore) notify(subs []func(Event), e Event) {
	for _, sub := range subs {
		sub(e)
	}
}

type descriptorFile struct {
	Bodies []struct {
		ID          model.BodyID              `json:"id"`
		Name        string                    `json:"name"`
		Kind        model.BodyKind            `json:"kind"`
		CategoryTag string                    `json:"category_tag"`
		Environment *model.WorldEnvDescriptor `json:"environment"`
	} `json:"bodies"`
}

// LoadDescriptors reads a JSON document of bodies and their optional
// environments into the store. It returns the number of bodies added.
func LoadDescriptors(s *DescriptorStore, r io.Reader) (int, error) {
	var f descriptorFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return 0, fmt.Errorf("decode descriptors: %w", err)
	}
	for i, b := range f.Bodies {
		def := &model.BodyDefinition{ID: b.ID, Name: b.Name, Kind: b.Kind, CategoryTag: b.CategoryTag}
		if err := s.AddBody(def); err != nil {
			return i, err
		}
		if b.Environment != nil {
			if err := s.PutEnvironment(b.ID, *b.Environment); err != nil {
				return i, err
			}
		}
	}
	return len(f.Bodies), nil
}
