package server

import (
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"

	"github.com/koinonia-app/koinonia/pkg/application"
)

func NewHTTPServer(
	app application.Application,
	notFoundHandler, methodNotAllowedHandler http.Handler,
) *HTTPServer {
	return &HTTPServer{
		Controllers:             app.Controllers(),
		Middlewares:             app.Middleware(),
		NotFoundHandler:         notFoundHandler,
		MethodNotAllowedHandler: methodNotAllowedHandler,
	}
}

type HTTPServer struct {
	Controllers             []application.Controller
	Middlewares             []mux.MiddlewareFunc
	NotFoundHandler         http.Handler
	MethodNotAllowedHandler http.Handler
}

func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.Middlewares...)
	for _, controller := range s.Controllers {
		controller.Register(r)
	}

	var notFoundHandler = s.NotFoundHandler
	var notAllowedHandler = s.MethodNotAllowedHandler
	for i := len(s.Middlewares) - 1; i >= 0; i-- {
		if notFoundHandler != nil {
			notFoundHandler = s.Middlewares[i](notFoundHandler)
		}
		if notAllowedHandler != nil {
			notAllowedHandler = s.Middlewares[i](notAllowedHandler)
		}
	}
	r.NotFoundHandler = notFoundHandler
	r.MethodNotAllowedHandler = notAllowedHandler
	return r
}

func (s *HTTPServer) Handler() http.Handler {
	return gziphandler.GzipHandler(s.Router())
}

func (s *HTTPServer) Start(socketAddress string) error {
	srv := &http.Server{
		Addr:              socketAddress,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
