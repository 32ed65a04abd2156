package definition

import (
	"fmt"
	"strings"

	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
)

// Problem is one validation finding in a definitions document.
type Problem struct {
	Path    string
	Code    string
	Message string
}

func (p Problem) Error() string {
	return fmt.Sprintf("%s: %s", p.Path, p.Message)
}

// Errors collects every problem found in a document.
type Errors []Problem

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, p := range e {
		msgs = append(msgs, p.Error())
	}
	return strings.Join(msgs, "; ")
}

// Is makes errors.Is match validation errors of the invalid document kind.
func (e Errors) Is(target error) bool {
	return core.ErrValidation(core.CodeInvalidDocument, "").Is(target)
}

func (e *Errors) add(path, code, msg string) {
	*e = append(*e, Problem{Path: path, Code: code, Message: msg})
}

func (e Errors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
