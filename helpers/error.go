package helpers

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
)

func FoldErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	ss := make([]string, 0, len(errs))
	for _, e := range errs {
		if e != nil {
			ss = append(ss, e.Error())
		}
	}
	if len(ss) == 0 {
		return nil
	}
	return errors.New(strings.Join(ss, "\n"))
}

// RecoverError converts panic value from recover() to error, nil stays nil.
func RecoverError(r interface{}, tag string) error {
	switch x := r.(type) {
	case nil:
		return nil
	case error:
		return errors.Annotatef(x, "%s panic", tag)
	default:
		return errors.Errorf("%s panic: %s", tag, fmt.Sprint(x))
	}
}
