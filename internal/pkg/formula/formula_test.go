package formula

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vars(m map[string]string) Lookup {
	return func(name string) (decimal.Decimal, bool) {
		s, ok := m[name]
		if !ok {
			return decimal.Zero, false
		}
		return decimal.RequireFromString(s), true
	}
}

func TestEvaluate(t *testing.T) {
	env := vars(map[string]string{"BASIC": "40000", "CTC": "100000", "HRA": "20000"})

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"literal", "42", "42"},
		{"decimal literal", "0.5", "0.5"},
		{"precedence", "2 + 3 * 4", "14"},
		{"parentheses", "(2 + 3) * 4", "20"},
		{"left associative minus", "10 - 4 - 3", "3"},
		{"left associative divide", "100 / 10 / 2", "5"},
		{"unary minus", "-5 + 10", "5"},
		{"double unary minus", "--5", "5"},
		{"variable", "BASIC * 0.1", "4000"},
		{"several variables", "CTC - BASIC - HRA", "40000"},
		{"min", "min(BASIC, 15000)", "15000"},
		{"max", "max(BASIC, 15000, 50000)", "50000"},
		{"round", "round(10 / 3, 2)", "3.33"},
		{"round half away from zero", "round(-2.5)", "-3"},
		{"case insensitive function", "MIN(1, 2)", "1"},
		{"whitespace", "  BASIC\t/\n4 ", "10000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.src, env)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	env := vars(map[string]string{"BASIC": "1000"})

	tests := []struct {
		name    string
		src     string
		wantErr error
	}{
		{"empty", "", ErrSyntax},
		{"dangling operator", "BASIC *", ErrSyntax},
		{"unbalanced parentheses", "(BASIC + 1", ErrSyntax},
		{"trailing token", "BASIC 1", ErrSyntax},
		{"bad character", "BASIC; os.Exit(1)", ErrSyntax},
		{"unknown function", "exec(BASIC)", ErrSyntax},
		{"round arity", "round(1, 2, 3)", ErrSyntax},
		{"bad number", "1.2.3", ErrSyntax},
		{"unknown variable", "BONUS * 2", ErrUnknownVariable},
		{"division by zero", "BASIC / (1 - 1)", ErrDivisionByZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.src, env)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestUnknownVariableError_Name(t *testing.T) {
	_, err := Evaluate("BASIC + HRA", vars(map[string]string{"BASIC": "1"}))

	var unknown *UnknownVariableError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "HRA", unknown.Name)
}

func TestExpr_Variables(t *testing.T) {
	expr, err := Parse("max(BASIC * 0.1, HRA) + BASIC - round(CTC / 12)")
	require.NoError(t, err)

	assert.Equal(t, []string{"BASIC", "HRA", "CTC"}, expr.Variables())
	assert.Equal(t, "max(BASIC * 0.1, HRA) + BASIC - round(CTC / 12)", expr.String())
}
