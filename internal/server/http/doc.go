// Package httpserver provides a REST gateway over folio books with SSE
// change streaming.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{Config: config.Default()})
//	s := httpserver.New(rt, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":7080")
//
//	curl -X PUT localhost:7080/v1/items/theme -d '{"dark":true}'
//	curl -N localhost:7080/v1/watch?key=theme
package httpserver
