package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

type recordingModule struct {
	name  string
	order *[]string
	err   error
	phase string // "early" or "init", which phase fails
}

func (m *recordingModule) EarlyInit(ctx context.Context, inj *Injector) error {
	*m.order = append(*m.order, m.name+":early")
	if m.phase == "early" {
		return m.err
	}
	return nil
}

func (m *recordingModule) Init(ctx context.Context, inj *Injector) error {
	*m.order = append(*m.order, m.name+":init")
	if m.phase == "init" {
		return m.err
	}
	return nil
}

func TestModuleGroupRunsEarlyInitThenInitInOrder(t *testing.T) {
	var order []string
	group := NewModuleGroup(
		&recordingModule{name: "a", order: &order},
		&recordingModule{name: "b", order: &order},
	)
	inj := New()
	require.NoError(t, RunModules(context.Background(), inj, group))

	assert.Equal(t, []string{"a:early", "b:early", "a:init", "b:init"}, order)
}

func TestModuleGroupWrapsFailureWithModuleType(t *testing.T) {
	var order []string
	group := NewModuleGroup(
		&recordingModule{name: "a", order: &order, phase: "early", err: kerrors.New(kerrors.Bug, "boom")},
	)
	err := RunModules(context.Background(), New(), group)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recordingModule")
}

func TestModuleGroupNests(t *testing.T) {
	var order []string
	inner := NewModuleGroup(&recordingModule{name: "inner", order: &order})
	outer := NewModuleGroup(&recordingModule{name: "outer", order: &order}, inner)

	require.NoError(t, RunModules(context.Background(), New(), outer))
	assert.Equal(t, []string{"outer:early", "inner:early", "outer:init", "inner:init"}, order)
}
