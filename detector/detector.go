package detector

import (
	"errors"
	"fmt"
	"sync"

	"github.com/signalsfoundry/navpolicy/geometry"
	"github.com/signalsfoundry/navpolicy/navigation"
)

var (
	ErrNilVolume       = errors.New("nil volume")
	ErrNilPolicy       = errors.New("nil navigation policy")
	ErrDuplicateVolume = errors.New("volume already exists")
	ErrVolumeNotFound  = errors.New("volume not found")
	ErrPolicyAttached  = errors.New("volume already has a navigation policy")
	ErrForeignPolicy   = errors.New("navigation policy was built for another volume")
)

// EventType indicates what kind of change happened in the detector.
type EventType int

const (
	EventVolumeAdded EventType = iota
	EventPolicyAttached
)

func (t EventType) String() string {
	switch t {
	case EventVolumeAdded:
		return "volume_added"
	case EventPolicyAttached:
		return "policy_attached"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is emitted to subscribers when a volume is added or receives its
// navigation policy.
type Event struct {
	Type   EventType
	Volume *geometry.Volume
}

type entry struct {
	volume *geometry.Volume
	policy *navigation.Composite
}

type subscriber struct {
	id int
	fn func(Event)
}

// Detector is a thread-safe registry of named volumes and the navigation
// policy attached to each. Volumes keep their insertion order.
type Detector struct {
	mu sync.RWMutex

	order   []string
	volumes map[string]*entry

	subs   []subscriber
	nextID int
}

// New constructs an empty detector.
func New() *Detector {
	return &Detector{volumes: make(map[string]*entry)}
}

// AddVolume registers v. Names must be unique.
func (d *Detector) AddVolume(v *geometry.Volume) error {
	if v == nil {
		return ErrNilVolume
	}
	d.mu.Lock()
	if _, exists := d.volumes[v.Name()]; exists {
		d.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateVolume, v.Name())
	}
	d.volumes[v.Name()] = &entry{volume: v}
	d.order = append(d.order, v.Name())
	subs := d.snapshotSubs()
	d.mu.Unlock()

	notify(subs, Event{Type: EventVolumeAdded, Volume: v})
	return nil
}

// AttachPolicy binds the composite to the named volume. A volume owns
// exactly one policy; attaching a second one fails.
func (d *Detector) AttachPolicy(name string, c *navigation.Composite) error {
	if c == nil {
		return fmt.Errorf("attach policy to %q: %w", name, ErrNilPolicy)
	}
	d.mu.Lock()
	e, ok := d.volumes[name]
	switch {
	case !ok:
		d.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrVolumeNotFound, name)
	case e.policy != nil:
		d.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrPolicyAttached, name)
	case c.Volume() != e.volume:
		d.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrForeignPolicy, name)
	}
	e.policy = c
	subs := d.snapshotSubs()
	d.mu.Unlock()

	notify(subs, Event{Type: EventPolicyAttached, Volume: e.volume})
	return nil
}

// Volume returns the named volume, or nil if not found.
func (d *Detector) Volume(name string) *geometry.Volume {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if e, ok := d.volumes[name]; ok {
		return e.volume
	}
	return nil
}

// Policy returns the composite attached to the named volume, or nil.
func (d *Detector) Policy(name string) *navigation.Composite {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if e, ok := d.volumes[name]; ok {
		return e.policy
	}
	return nil
}

// Volumes returns a snapshot of all volumes in insertion order.
func (d *Detector) Volumes() []*geometry.Volume {
	d.mu.RLock()
	defer d.mu.RUnlock()

	res := make([]*geometry.Volume, 0, len(d.order))
	for _, name := range d.order {
		res = append(res, d.volumes[name].volume)
	}
	return res
}

// Len returns the number of registered volumes.
func (d *Detector) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.order)
}

// VolumeAt returns the first volume, in insertion order, whose bounds
// contain p.
func (d *Detector) VolumeAt(p geometry.Vec) *geometry.Volume {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, name := range d.order {
		if v := d.volumes[name].volume; v.Bounds().Contains(p) {
			return v
		}
	}
	return nil
}

// Candidates locates the volume holding q.Position and asks its policy for
// candidates. ok is false when no volume with an attached policy contains
// the point.
func (d *Detector) Candidates(q navigation.Query) (vol *geometry.Volume, cands []navigation.Candidate, ok bool) {
	vol = d.VolumeAt(q.Position)
	if vol == nil {
		return nil, nil, false
	}
	policy := d.Policy(vol.Name())
	if policy == nil {
		return vol, nil, false
	}
	return vol, policy.Candidates(q), true
}

// Subscribe registers a callback for detector events. It returns an
// unsubscribe function.
func (d *Detector) Subscribe(fn func(Event)) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.subs = append(d.subs, subscriber{id: id, fn: fn})

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, s := range d.subs {
			if s.id == id {
				d.subs = append(d.subs[:i], d.subs[i+1:]...)
				return
			}
		}
	}
}

// snapshotSubs must be called with d.mu held.
func (d *Detector) snapshotSubs() []func(Event) {
	out := make([]func(Event), len(d.subs))
	for i, s := range d.subs {
		out[i] = s.fn
	}
	return out
}

// notify runs outside the lock so callbacks may query the detector.
func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
