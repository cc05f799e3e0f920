package application

import (
	"fmt"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type Controller interface {
	Register(r *mux.Router)
	Key() string
}

type Module interface {
	Register(app Application) error
	Name() string
}

// Application is the registry modules plug their services and controllers into.
type Application interface {
	DB() *pgxpool.Pool
	Logger() *logrus.Logger
	Middleware() []mux.MiddlewareFunc
	Controllers() []Controller
	RegisterControllers(controllers ...Controller)
	RegisterMiddleware(middleware ...mux.MiddlewareFunc)
	RegisterServices(services ...interface{})
	Service(service interface{}) interface{}
	Services() map[reflect.Type]interface{}
}

type ApplicationOptions struct {
	Pool   *pgxpool.Pool
	Logger *logrus.Logger
}

func New(opts *ApplicationOptions) Application {
	return &application{
		pool:        opts.Pool,
		logger:      opts.Logger,
		controllers: make(map[string]Controller),
		services:    make(map[reflect.Type]interface{}),
	}
}

// application with a dynamically extendable service registry
type application struct {
	pool        *pgxpool.Pool
	logger      *logrus.Logger
	services    map[reflect.Type]interface{}
	controllers map[string]Controller
	middleware  []mux.MiddlewareFunc
}

func (app *application) DB() *pgxpool.Pool {
	return app.pool
}

func (app *application) Logger() *logrus.Logger {
	return app.logger
}

func (app *application) Middleware() []mux.MiddlewareFunc {
	return app.middleware
}

func (app *application) Controllers() []Controller {
	controllers := make([]Controller, 0, len(app.controllers))
	for _, c := range app.controllers {
		controllers = append(controllers, c)
	}
	return controllers
}

func (app *application) RegisterControllers(controllers ...Controller) {
	for _, c := range controllers {
		app.controllers[c.Key()] = c
	}
}

func (app *application) RegisterMiddleware(middleware ...mux.MiddlewareFunc) {
	app.middleware = append(app.middleware, middleware...)
}

// RegisterServices registers a new service in the application by its type
func (app *application) RegisterServices(services ...interface{}) {
	for _, service := range services {
		serviceType := reflect.TypeOf(service).Elem()
		app.services[serviceType] = service
	}
}

// Service retrieves a service by its type
func (app *application) Service(service interface{}) interface{} {
	serviceType := reflect.TypeOf(service)
	svc, exists := app.services[serviceType]
	if !exists {
		panic(fmt.Sprintf("service %s not found", serviceType.Name()))
	}
	return svc
}

func (app *application) Services() map[reflect.Type]interface{} {
	return app.services
}
