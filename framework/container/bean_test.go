package container_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/types"
)

// ── Ambiguity ─────────────────────────────────────────────────────────────────

// TestGet_TwoUnqualifiedStrict verifies two plain providers are ambiguous under the strict resolver.
func TestGet_TwoUnqualifiedStrict(t *testing.T) {
	c := container.New(container.WithResolver(container.StrictResolver{}))
	require.NoError(t, c.RegisterAll(newStub("a", "Service"), newStub("b", "Service")))

	_, err := c.Require(id("Service"))
	require.ErrorIs(t, err, container.ErrAmbiguousResolution)

	var amb *container.AmbiguousResolutionError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, []string{"a", "b"}, amb.Candidates)
	assert.Equal(t, 2, amb.Matched)
	assert.Equal(t, 2, amb.Total())
	assert.Equal(t, container.ResolverStrict, amb.Resolver)
	assert.Contains(t, err.Error(), "2 matched of 2 candidates")
	assert.Contains(t, err.Error(), "\n  - a\n  - b")
}

func TestGet_SingleUnqualified(t *testing.T) {
	c := container.New(container.WithResolver(container.StrictResolver{}))
	require.NoError(t, c.Register(newStub("only", "Service")))

	v, ok, err := c.Get(id("Service"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "only", v)
}

// ── Primary ───────────────────────────────────────────────────────────────────

// TestGet_PrimaryAlwaysWins verifies the primary answers no matter how many others exist.
func TestGet_PrimaryAlwaysWins(t *testing.T) {
	c := container.New(container.WithResolver(container.StrictResolver{}))
	require.NoError(t, c.RegisterAll(
		newStub("a", "Service"),
		newStub("main", "Service", primary),
		newStub("b", "Service"),
		newStub("q", "Service", qualified(types.Named("q"))),
	))

	for range 3 {
		v, err := c.Require(id("Service"))
		require.NoError(t, err)
		assert.Equal(t, "main", v)
	}

	require.NoError(t, c.Register(newStub("late", "Service")))
	v, err := c.Require(id("Service"))
	require.NoError(t, err)
	assert.Equal(t, "main", v)
}

func TestRegister_DuplicatePrimary(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(newStub("first", "Service", primary)))

	err := c.Register(newStub("second", "Service", primary))
	require.ErrorIs(t, err, container.ErrDuplicatePrimary)

	var dup *container.DuplicatePrimaryError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "first", dup.Existing)
	assert.Equal(t, "second", dup.Incoming)
	assert.Equal(t, "bean", dup.Scope)
	assert.Contains(t, err.Error(), `existing "first", incoming "second"`)
}

func TestRegister_DuplicatePrimaryInPartition(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(newStub("a1", "Box[A]", primary)))
	require.NoError(t, c.Register(newStub("b1", "Box[B]", primary)), "other partitions have their own slot")
	require.NoError(t, c.Register(newStub("raw", "Box", primary)), "the whole-bean slot is separate")

	err := c.Register(newStub("a2", "Box[A]", primary))
	var dup *container.DuplicatePrimaryError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "partition Box[A]", dup.Scope)
	assert.Equal(t, "a1", dup.Existing)
}

func TestRegister_QualifiedPrimaryTakesBothSlots(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(newStub("qp", "Service", primary, qualified(types.Named("x")))))
	require.NoError(t, c.Register(newStub("plain", "Service")))

	b, ok, err := c.Access(id("Service"))
	require.NoError(t, err)
	require.True(t, ok)

	p, ok := b.Primary()
	require.True(t, ok)
	assert.Equal(t, "qp", container.Describe(p))

	q, ok := b.GetQualified(types.Named("x"))
	require.True(t, ok)
	assert.Equal(t, "qp", container.Describe(q))

	err = c.Register(newStub("qp2", "Service", primary, qualified(types.Named("y"))))
	require.ErrorIs(t, err, container.ErrDuplicatePrimary)
}

// ── Qualifiers ────────────────────────────────────────────────────────────────

func TestRegister_DuplicateQualifier(t *testing.T) {
	c := container.New()
	q := types.NewQualifier("Region", types.Field{Name: "value", Value: "eu"})
	require.NoError(t, c.Register(newStub("eu-1", "Store", qualified(q))))

	err := c.Register(newStub("eu-2", "Store", qualified(q)))
	require.ErrorIs(t, err, container.ErrDuplicateQualifier)

	var dup *container.DuplicateQualifierError
	require.ErrorAs(t, err, &dup)
	assert.True(t, dup.Qualifier.Equal(q))
	assert.Equal(t, "eu-1", dup.Existing)
	assert.Equal(t, "eu-2", dup.Incoming)
}

func TestGetQualified(t *testing.T) {
	c := container.New()
	require.NoError(t, c.RegisterAll(
		newStub("primary-db", "DB", qualified(types.Named("primary"))),
		newStub("replica-db", "DB", qualified(types.Named("replica"))),
	))

	v, ok, err := c.GetQualified(id("DB"), types.Named("replica"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "replica-db", v)

	_, ok, err = c.GetQualified(id("DB"), types.Named("missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, c.ContainsQualified(id("DB"), types.Named("primary")))
	assert.False(t, c.ContainsQualified(id("Other"), types.Named("primary")))
}

func TestGet_QualifiedOnlyCandidatesGoToResolver(t *testing.T) {
	c := container.New(container.WithResolver(container.StrictResolver{}))
	require.NoError(t, c.Register(newStub("only", "DB", qualified(types.Named("x")))))

	v, err := c.Require(id("DB"))
	require.NoError(t, err)
	assert.Equal(t, "only", v)

	require.NoError(t, c.Register(newStub("other", "DB", qualified(types.Named("y")))))
	_, err = c.Require(id("DB"))
	require.ErrorIs(t, err, container.ErrAmbiguousResolution)
}

// TestRegister_FailureLeavesBeansUntouched verifies a rejected provider is not half-registered.
func TestRegister_FailureLeavesBeansUntouched(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(newStub("first", "Store", qualified(types.Named("x")))))

	err := c.Register(newStub("second", "Cache", wiredAs("Store"), qualified(types.Named("x"))))
	require.ErrorIs(t, err, container.ErrDuplicateQualifier)

	_, ok, err := c.Access(id("Cache"))
	require.NoError(t, err)
	assert.False(t, ok, "Cache bean must not have been created")
}

// ── Generic matching ──────────────────────────────────────────────────────────

// TestGet_GenericMatching verifies Box[ImplementationAA] answers Box[Interface] and raw Box but not Box[ImplementationBB].
func TestGet_GenericMatching(t *testing.T) {
	c := container.New(container.WithHierarchy(boxHierarchy()), container.WithResolver(container.StrictResolver{}))
	require.NoError(t, c.Register(newStub("aa", "Box[ImplementationAA]")))

	for _, q := range []string{"Box[Interface]", "Box", "Box[ImplementationAA]", "Box[?]"} {
		t.Run(q, func(t *testing.T) {
			v, ok, err := c.Get(id(q))
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "aa", v)
		})
	}

	_, ok, err := c.Get(id("Box[ImplementationBB]"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_PartitionPreferredForConcreteQuery(t *testing.T) {
	c := container.New(container.WithHierarchy(boxHierarchy()), container.WithResolver(container.StrictResolver{}))
	require.NoError(t, c.RegisterAll(
		newStub("raw", "Box"),
		newStub("aa", "Box[ImplementationAA]"),
	))

	v, err := c.Require(id("Box[ImplementationAA]"))
	require.NoError(t, err)
	assert.Equal(t, "aa", v)

	v, err = c.Require(id("Box"))
	require.NoError(t, err)
	assert.Equal(t, "raw", v, "a single unqualified provider answers the raw query")

	v, err = c.Require(id("Box[ImplementationBB]"))
	require.NoError(t, err)
	assert.Equal(t, "raw", v, "raw providers answer any specialisation")
}

func TestGet_PartitionPrimaryBeatsPartitionPeers(t *testing.T) {
	c := container.New(container.WithHierarchy(boxHierarchy()), container.WithResolver(container.StrictResolver{}))
	require.NoError(t, c.RegisterAll(
		newStub("aa-1", "Box[ImplementationAA]"),
		newStub("aa-main", "Box[ImplementationAA]", primary),
		newStub("aa-2", "Box[ImplementationAA]"),
	))

	v, err := c.Require(id("Box[ImplementationAA]"))
	require.NoError(t, err)
	assert.Equal(t, "aa-main", v)

	b, _, _ := c.Access(id("Box"))
	p, ok := b.PartitionPrimary(id("Box[ImplementationAA]"))
	require.True(t, ok)
	assert.Equal(t, "aa-main", container.Describe(p))
	_, ok = b.Primary()
	assert.False(t, ok)
}

func TestGet_CovariantPartitionsAreAmbiguous(t *testing.T) {
	c := container.New(container.WithHierarchy(boxHierarchy()), container.WithResolver(container.StrictResolver{}))
	require.NoError(t, c.RegisterAll(
		newStub("aa", "Box[ImplementationAA]"),
		newStub("bb", "Box[ImplementationBB]"),
	))

	_, err := c.Require(id("Box[Interface]"))
	var amb *container.AmbiguousResolutionError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, []string{"aa", "bb"}, amb.Candidates)

	v, err := c.Require(id("Box[ImplementationBB]"))
	require.NoError(t, err)
	assert.Equal(t, "bb", v)
}

func TestGet_BoxedAndBuiltinSpellingsMatch(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(newStub("answer", "Integer", valued(42))))

	v, err := c.Require(types.TypeOf[int]())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

// ── GetAll ────────────────────────────────────────────────────────────────────

func TestGetAll_OrderedAndDeduplicated(t *testing.T) {
	c := container.New(container.WithHierarchy(boxHierarchy()))
	require.NoError(t, c.RegisterAll(
		newStub("late", "Box", ordered(10)),
		newStub("aa", "Box[ImplementationAA]", ordered(1), wiredAs("Box")),
		newStub("bb", "Box[ImplementationBB]", ordered(1)),
		newStub("q", "Box", qualified(types.Named("q")), ordered(5)),
	))

	all, err := c.GetAll(id("Box"))
	require.NoError(t, err)
	assert.Equal(t, []any{"aa", "bb", "q", "late"}, all)

	only, err := c.GetAll(id("Box[Interface]"))
	require.NoError(t, err)
	assert.Equal(t, []any{"aa", "bb", "q", "late"}, only, "raw and qualified raw providers answer every specialisation")

	aa, err := c.GetAll(id("Box[ImplementationAA]"))
	require.NoError(t, err)
	assert.Equal(t, []any{"aa", "q", "late"}, aa)

	b, _, _ := c.Access(id("Box"))
	assert.Equal(t, 4, b.Len())
}

func TestGetAll_SkipsAbsentInstances(t *testing.T) {
	c := container.New()
	require.NoError(t, c.RegisterAll(newStub("a", "Plugin"), newStub("b", "Plugin", absent)))

	all, err := c.GetAll(id("Plugin"))
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, all)

	none, err := c.GetAll(id("Nothing"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAdditionalWireTypes_IndexesAcrossBeans(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(newStub("smtp", "SMTPMailer", wiredAs("Mailer", "Mailer"))))

	v, err := c.Require(id("Mailer"))
	require.NoError(t, err)
	assert.Equal(t, "smtp", v)

	v, err = c.Require(id("SMTPMailer"))
	require.NoError(t, err)
	assert.Equal(t, "smtp", v)

	b, _, _ := c.Access(id("Mailer"))
	assert.Equal(t, 1, b.Len())
}

// ── Absence & invalid queries ─────────────────────────────────────────────────

func TestGet_AbsentInstance(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Register(newStub("gone", "Lazy", absent)))

	_, ok, err := c.Get(id("Lazy"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Require(id("Lazy"))
	require.ErrorIs(t, err, container.ErrNotFound)

	_, err = c.Require(id("Unknown"))
	var nf *container.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Unknown", nf.Type.Key())
}

func TestQueries_RejectReferenceTypes(t *testing.T) {
	c := container.New()
	refs := []types.TypeIdentifier{
		container.BeanType,
		container.ProviderType,
		types.Of(container.ProviderType.Key(), types.Of("Service")),
	}
	for _, ref := range refs {
		t.Run(ref.Key(), func(t *testing.T) {
			_, _, err := c.Get(ref)
			assert.ErrorIs(t, err, container.ErrInvalidQuery)
			_, _, err = c.Access(ref)
			assert.ErrorIs(t, err, container.ErrInvalidQuery)
			_, err = c.AccessOrCreate(ref)
			assert.ErrorIs(t, err, container.ErrInvalidQuery)
			_, err = c.GetAll(ref)
			assert.ErrorIs(t, err, container.ErrInvalidQuery)
			_, _, err = c.GetQualified(ref, types.Named("x"))
			assert.ErrorIs(t, err, container.ErrInvalidQuery)
		})
	}
}

func TestRegister_Nil(t *testing.T) {
	c := container.New()
	assert.True(t, errors.Is(c.Register(nil), container.ErrNilProvider))
}

func TestAccessOrCreate(t *testing.T) {
	c := container.New()
	b, err := c.AccessOrCreate(id("Box[A]"))
	require.NoError(t, err)
	assert.Equal(t, "Box", b.Type().Key())
	assert.Equal(t, 0, b.Len())

	again, ok, err := c.Access(id("Box"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, b, again)
}

func TestBean_ReadAccessors(t *testing.T) {
	c := container.New()
	require.NoError(t, c.RegisterAll(
		newStub("plain", "Box"),
		newStub("named", "Box", qualified(types.Named("n"))),
		newStub("a", "Box[A]"),
	))
	b, _, _ := c.Access(id("Box"))

	assert.Len(t, b.Unqualified(), 1)
	assert.Equal(t, []types.QualifierType{types.Named("n")}, b.Qualifiers())
	require.Len(t, b.Partitions(), 1)
	assert.Equal(t, "Box[A]", b.Partitions()[0].Key())
	assert.Len(t, b.GetAll(), 3)
	assert.Len(t, b.GetAllOf(id("Box[B]")), 2)

	p, ok, err := b.Get(id("Box[A]"), container.StrictResolver{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", container.Describe(p))
}
