package store

import (
	"database/sql/driver"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"modernc.org/sqlite"
)

// foldFunc is the SQL function searches compare through. SQLite's LIKE only
// folds ASCII letters, so "Reunión" and "REUNIÓN" need folding first.
const foldFunc = "fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, sqlFold)
}

func sqlFold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return foldText(v), nil
	case []byte:
		return foldText(string(v)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported argument type %T", foldFunc, v)
	}
}

// foldText case-folds s after composing accents, so precomposed and
// decomposed spellings compare equal.
func foldText(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
