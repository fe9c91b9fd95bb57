// Package mgmt implements the forwarder's management command surface:
// a minimal local dispatch table over FIB, RIB, StrategyChoice,
// Content Store, and forwarder-status modules. Unlike a full NFD
// management protocol, there is no wire codec or signed-command
// validator here - a caller hands a module a decoded ControlArgs and
// gets a Response back, exactly the shape real management Interests
// would carry once decoded.
package mgmt

import (
	mgmt "github.com/named-data/ndnd/std/ndn/mgmt_2022"
)

// Response is a management command's result: a status code in the
// same family NFD uses on its control and readvertise paths (200
// success, 400 malformed, 401/403 signature-related, 410 face not
// found, 501 unsupported verb), freeform text, and either echoed
// control parameters (Params, for add/remove/set/unset-style verbs)
// or a listing (Dataset, for list/info-style verbs) - never both,
// mirroring NFD's split between sendCtrlResp and sendStatusDataset.
type Response struct {
	Code    int
	Text    string
	Params  *mgmt.ControlArgs
	Dataset any
}

func ok(params *mgmt.ControlArgs) Response { return Response{Code: 200, Text: "OK", Params: params} }
func dataset(d any) Response               { return Response{Code: 200, Text: "OK", Dataset: d} }
func badParams(text string) Response       { return Response{Code: 400, Text: text} }
func faceNotFound() Response               { return Response{Code: 410, Text: "Face does not exist"} }
func unsupportedVerb(verb string) Response { return Response{Code: 501, Text: "Unknown verb: " + verb} }

// Module handles the verbs of one management subsystem (fib, rib,
// strategy-choice, cs, status).
type Module interface {
	String() string
	Handle(verb string, params *mgmt.ControlArgs) Response
}

// Dispatcher routes a (module, verb, params) management command to
// the registered Module, the Go-level analog of NFD dispatching an
// Interest under /localhost/nfd/<module>/<verb> to the right handler.
type Dispatcher struct {
	modules map[string]Module
}

// NewDispatcher constructs an empty Dispatcher; call Register for
// each module it should expose.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{modules: make(map[string]Module)}
}

// Register adds module under name (e.g. "fib", "rib").
func (d *Dispatcher) Register(name string, module Module) {
	d.modules[name] = module
}

// Dispatch routes to the named module's verb handler, or a 501 if no
// such module is registered.
func (d *Dispatcher) Dispatch(module, verb string, params *mgmt.ControlArgs) Response {
	m, ok := d.modules[module]
	if !ok {
		return unsupportedVerb(module + "/" + verb)
	}
	return m.Handle(verb, params)
}
