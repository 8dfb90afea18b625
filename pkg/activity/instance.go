package activity

import "sync"

// Tier is one level of activity settings. Absent Values and nil mappings
// mean "not set at this tier".
type Tier struct {
	Key          string
	Owner        Value
	Recipient    Value
	Params       *Mapping
	CustomFields *Mapping
}

// Empty reports whether no field of the tier is set.
func (t Tier) Empty() bool {
	return t.Key == "" && !t.Owner.Present() && !t.Recipient.Present() &&
		t.Params.Len() == 0 && t.CustomFields.Len() == 0
}

// Instance holds the per-entity settings tier. Embed it in a tracked type:
//
//	type Article struct {
//		activity.Instance
//		ID string
//	}
//
// The tier is consumed by the next record attempt and then reset.
type Instance struct {
	mu   sync.Mutex
	tier Tier
}

// ActivityInstance exposes the embedded tier to the recorder.
func (i *Instance) ActivityInstance() *Instance { return i }

// SetActivity stores the fields present in t, replacing earlier values of
// those fields and leaving the others alone.
func (i *Instance) SetActivity(t Tier) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if t.Key != "" {
		i.tier.Key = t.Key
	}
	if t.Owner.Present() {
		i.tier.Owner = t.Owner
	}
	if t.Recipient.Present() {
		i.tier.Recipient = t.Recipient
	}
	if t.Params != nil {
		i.tier.Params = t.Params.Clone()
	}
	if t.CustomFields != nil {
		i.tier.CustomFields = t.CustomFields.Clone()
	}
}

// ActivityTier returns a snapshot of the current instance tier.
func (i *Instance) ActivityTier() Tier {
	i.mu.Lock()
	defer i.mu.Unlock()
	t := i.tier
	t.Params = t.Params.Clone()
	t.CustomFields = t.CustomFields.Clone()
	return t
}

// ResetActivity clears the instance tier.
func (i *Instance) ResetActivity() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tier = Tier{}
}
