package guild_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/guildnet/guild-oracle/model/guild"
)

func TestRelationAssert(t *testing.T) {
	ten := uint256.NewInt(10)

	cases := []struct {
		relation guild.Relation
		x        uint64
		expected bool
	}{
		{guild.EqualTo(ten), 10, true},
		{guild.EqualTo(ten), 11, false},
		{guild.GreaterThan(ten), 10, false},
		{guild.GreaterThan(ten), 11, true},
		{guild.GreaterOrEqualTo(ten), 10, true},
		{guild.GreaterOrEqualTo(ten), 9, false},
		{guild.LessThan(ten), 10, false},
		{guild.LessThan(ten), 9, true},
		{guild.LessOrEqualTo(ten), 10, true},
		{guild.LessOrEqualTo(ten), 11, false},
		{guild.Between(uint256.NewInt(5), ten), 5, true},
		{guild.Between(uint256.NewInt(5), ten), 9, true},
		{guild.Between(uint256.NewInt(5), ten), 10, false},
		{guild.Between(uint256.NewInt(5), ten), 4, false},
		{guild.Relation{Kind: 42}, 10, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, c.relation.Assert(uint256.NewInt(c.x)), "%s on %d", c.relation, c.x)
	}
}

// Between(a, b) holds exactly for a <= x < b.
func TestRelationBetweenHalfOpen(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Uint64Max(1 << 62).Draw(t, "a")
		b := rapid.Uint64Range(a+1, 1<<63).Draw(t, "b")
		x := rapid.Uint64().Draw(t, "x")

		relation := guild.Between(uint256.NewInt(a), uint256.NewInt(b))
		if relation.Assert(uint256.NewInt(x)) != (a <= x && x < b) {
			t.Fatalf("between [%d, %d) disagrees on %d", a, b, x)
		}
		if !relation.Assert(uint256.NewInt(a)) {
			t.Fatalf("lower bound %d must be included", a)
		}
		if relation.Assert(uint256.NewInt(b)) {
			t.Fatalf("upper bound %d must be excluded", b)
		}
	})
}

func TestRelationValidate(t *testing.T) {
	assert.NoError(t, guild.Between(uint256.NewInt(1), uint256.NewInt(2)).Validate())
	assert.Error(t, guild.Between(uint256.NewInt(2), uint256.NewInt(2)).Validate())
	assert.Error(t, guild.Between(uint256.NewInt(3), uint256.NewInt(2)).Validate())
	assert.Error(t, guild.Relation{Kind: guild.RelationEqualTo, Upper: *uint256.NewInt(1)}.Validate())
	assert.Error(t, guild.Relation{}.Validate())
}
