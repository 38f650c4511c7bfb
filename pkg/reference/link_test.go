package reference_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/reference"
)

const (
	acmeID   = "11111111-1111-4111-8111-111111111111"
	otherID  = "22222222-2222-4222-8222-222222222222"
	unusedID = "33333333-3333-4333-8333-333333333333"
)

func companyLink(targets *fakeTargets) reference.Link[company] {
	return reference.Link[company]{Field: "company_id", TargetKind: "Company", Targets: targets}
}

func TestResolveForWrite(t *testing.T) {
	ctx := context.Background()
	current := reference.Unresolved[company](acmeID)

	tests := []struct {
		name      string
		current   reference.Ref[company]
		requested reference.Optional
		wantKind  reference.ActionKind
		wantKey   reference.Key
		changed   bool
		wantErr   string
	}{
		{name: "omitted leaves value", current: current, requested: reference.Unset(), wantKind: reference.Unchanged},
		{name: "empty clears", current: current, requested: reference.Set(""), wantKind: reference.Clear, changed: true},
		{name: "empty on absent is a no-op clear", current: reference.Absent[company](), requested: reference.Set(""), wantKind: reference.Clear},
		{name: "set to existing target", current: current, requested: reference.Set(otherID), wantKind: reference.SetTo, wantKey: otherID, changed: true},
		{name: "set to same target", current: current, requested: reference.Set(acmeID), wantKind: reference.SetTo, wantKey: acmeID},
		{name: "malformed", current: current, requested: reference.Set("nope"), wantErr: "Invalid company_id: nope"},
		{name: "missing target", current: current, requested: reference.Set(unusedID), wantErr: "Company not found: " + unusedID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targets := newFakeTargets(acmeID, otherID)
			action, err := reference.ResolveForWrite(ctx, companyLink(targets), tt.current, tt.requested)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, action.Kind)
			assert.Equal(t, tt.wantKey, action.Key)
			assert.Equal(t, tt.changed, action.Changed)
		})
	}
}

func TestResolveForWriteSkipsLookupForMalformedID(t *testing.T) {
	targets := newFakeTargets(acmeID)
	_, err := reference.ResolveForWrite(context.Background(), companyLink(targets), reference.Absent[company](), reference.Set("xyz"))
	require.Error(t, err)
	assert.Equal(t, 0, targets.queries)
}

func TestResolveForWriteWrapsLookupFailure(t *testing.T) {
	targets := newFakeTargets()
	targets.failWith = errors.New("connection reset")

	_, err := reference.ResolveForWrite(context.Background(), companyLink(targets), reference.Absent[company](), reference.Set(acmeID))
	require.Error(t, err)
	assert.ErrorIs(t, err, targets.failWith)
}

func TestResolveForRead(t *testing.T) {
	acme := &company{ID: acmeID}

	assert.Nil(t, reference.ResolveForRead(reference.Absent[company]()))
	assert.Equal(t, acmeID, *reference.ResolveForRead(reference.Unresolved[company](acmeID)))
	assert.Equal(t, acmeID, *reference.ResolveForRead(reference.Resolved(reference.Key(acmeID), acme)))
}

func TestResolveAll(t *testing.T) {
	ctx := context.Background()

	t.Run("applies every link after all resolve", func(t *testing.T) {
		targets := newFakeTargets(acmeID, otherID)
		companyRef := reference.Unresolved[company](acmeID)
		contactRef := reference.Absent[company]()

		changes, err := reference.ResolveAll(ctx,
			reference.Stage(companyLink(targets), &companyRef, reference.Set("")),
			reference.Stage(reference.Link[company]{Field: "contact_id", TargetKind: "Contact", Targets: targets}, &contactRef, reference.Set(otherID)),
		)
		require.NoError(t, err)

		assert.True(t, companyRef.IsAbsent())
		key, ok := contactRef.Key()
		require.True(t, ok)
		assert.Equal(t, reference.Key(otherID), key)

		require.Len(t, changes, 2)
		assert.Equal(t, "company_id", changes[0].Field)
		assert.Equal(t, acmeID, *changes[0].From)
		assert.Nil(t, changes[0].To)
		assert.Nil(t, changes[1].From)
		assert.Equal(t, otherID, *changes[1].To)
	})

	t.Run("leaves every field untouched when one fails", func(t *testing.T) {
		targets := newFakeTargets(acmeID)
		companyRef := reference.Absent[company]()
		contactRef := reference.Unresolved[company](acmeID)

		_, err := reference.ResolveAll(ctx,
			reference.Stage(companyLink(targets), &companyRef, reference.Set(acmeID)),
			reference.Stage(reference.Link[company]{Field: "contact_id", TargetKind: "Contact", Targets: targets}, &contactRef, reference.Set(unusedID)),
		)
		require.Error(t, err)
		assert.Equal(t, "Contact not found: "+unusedID, err.Error())

		assert.True(t, companyRef.IsAbsent())
		key, _ := contactRef.Key()
		assert.Equal(t, reference.Key(acmeID), key)
	})

	t.Run("format errors win over missing targets", func(t *testing.T) {
		targets := newFakeTargets()
		companyRef := reference.Absent[company]()
		contactRef := reference.Absent[company]()

		_, err := reference.ResolveAll(ctx,
			reference.Stage(companyLink(targets), &companyRef, reference.Set(unusedID)),
			reference.Stage(reference.Link[company]{Field: "contact_id", TargetKind: "Contact", Targets: targets}, &contactRef, reference.Set("bad")),
		)
		require.Error(t, err)
		assert.Equal(t, "Invalid contact_id: bad", err.Error())
		assert.Equal(t, 0, targets.queries)
	})
}
