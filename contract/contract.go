//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// ICredentialVerifier turns a bearer token into a verified identity.
type ICredentialVerifier interface {
	Verify(token string) (domain.UserID, error)
}

// ICompleter is the external completion service behind the bot. It may be slow and it may fail.
type ICompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// IRelay is the part of the reactor exposed to the account API.
type IRelay interface {
	Rename(ctx context.Context, userID domain.UserID, oldUsername, newUsername string) error
}
