package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every feature handler that registers
// routes on the application router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}
