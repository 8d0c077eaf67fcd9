package firestore

import (
	"errors"

	"google.golang.org/api/iterator"
)

func isDone(err error) bool {
	return errors.Is(err, iterator.Done)
}
