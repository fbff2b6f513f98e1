// Package server implements tool registration, request dispatch and the
// request loop that ties them to a transport.
//
// # Tools
//
// A tool is built from a typed handler. The input schema is generated from
// the parameter type, and parameters are decoded into it on every call:
//
//	type EchoParams struct {
//	    Text string `json:"text" jsonschema:"required,description=Text to echo"`
//	}
//
//	echo := server.MustTool("echo", "Echo text back",
//	    func(ctx context.Context, p EchoParams) (string, error) {
//	        return p.Text, nil
//	    })
//
// Parameter types may implement Validator for checks that the JSON decoder
// cannot express.
//
// # Serving
//
//	registry, err := server.NewRegistry(echo)
//	srv := server.New(transport.NewStdio(), registry,
//	    server.WithMiddleware(middleware.Recover(), middleware.RequestID()),
//	)
//	err = srv.Run(ctx)
//
// Requests are handled strictly one at a time and every request, including
// one that cannot be decoded, receives exactly one response.
package server
