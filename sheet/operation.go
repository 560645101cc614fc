package sheet

import "fmt"

// OpKind is the kind of structural edit a grid reports.
type OpKind string

const (
	OpCreate OpKind = "CREATE"
	OpUpdate OpKind = "UPDATE"
	OpDelete OpKind = "DELETE"
)

// Operation is one grid edit over the half-open row range [FromRowIndex, ToRowIndex).
// CREATE and UPDATE ranges index the post-edit rows; DELETE ranges index the rows as
// they were displayed before the edit.
type Operation struct {
	Kind         OpKind
	FromRowIndex int
	ToRowIndex   int
}

func Create(from, to int) Operation { return Operation{Kind: OpCreate, FromRowIndex: from, ToRowIndex: to} }
func Update(from, to int) Operation { return Operation{Kind: OpUpdate, FromRowIndex: from, ToRowIndex: to} }
func Delete(from, to int) Operation { return Operation{Kind: OpDelete, FromRowIndex: from, ToRowIndex: to} }

func (o Operation) String() string {
	return fmt.Sprintf("%s[%d:%d]", o.Kind, o.FromRowIndex, o.ToRowIndex)
}

// bounds clamps the range to a slice of length n.
func (o Operation) bounds(n int) (int, int) {
	from, to := o.FromRowIndex, o.ToRowIndex
	if from < 0 {
		from = 0
	}
	if to > n {
		to = n
	}
	if to < 0 {
		to = 0
	}
	if from > to {
		from = to
	}
	return from, to
}
