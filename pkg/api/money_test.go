package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	t.Run("parse rounds to cents", func(t *testing.T) {
		tests := []struct {
			in   string
			want string
		}{
			{"12", "12.00"},
			{"12.5", "12.50"},
			{" 0.125 ", "0.13"},
			{"68.994", "68.99"},
		}
		for i, tc := range tests {
			m, err := ParseMoney(tc.in)
			require.NoError(t, err)
			if got := m.String(); got != tc.want {
				t.Fatalf("case %d: got %q want %q", i, got, tc.want)
			}
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, in := range []string{"", "abc", "1,5", "NaN", "Infinity"} {
			_, err := ParseMoney(in)
			assert.Error(t, err, in)
		}
	})

	t.Run("arithmetic is exact", func(t *testing.T) {
		sum := Money{}
		for i := 0; i < 10; i++ {
			sum = sum.Add(MustMoney("0.10"))
		}
		assert.Equal(t, "1.00", sum.String())
		assert.Equal(t, "77.97", MustMoney("25.99").MulInt(3).String())
		assert.Equal(t, 0, sum.Cmp(Cents(100)))
		assert.Equal(t, 1, sum.Sign())
		assert.Equal(t, 0, Money{}.Sign())
	})

	t.Run("cents round trip", func(t *testing.T) {
		m := MustMoney("31.46")
		assert.Equal(t, int64(3146), m.Cents())
		v, err := m.Value()
		require.NoError(t, err)
		var back Money
		require.NoError(t, back.Scan(v))
		assert.Equal(t, "31.46", back.String())
		require.NoError(t, back.Scan(nil))
		assert.Equal(t, "0.00", back.String())
	})

	t.Run("json as string", func(t *testing.T) {
		b, err := json.Marshal(Dish{Price: MustMoney("8")})
		require.NoError(t, err)
		assert.Contains(t, string(b), `"price":"8.00"`)

		var d Dish
		require.NoError(t, json.Unmarshal([]byte(`{"price":12.5}`), &d))
		assert.Equal(t, "12.50", d.Price.String())
	})
}

func TestNewFileName(t *testing.T) {
	a := NewFileName(".PNG")
	b := NewFileName(".PNG")
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
	assert.Equal(t, ".png", a[32:])
}
