package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/queueflow/backend/api/handler"
)

type Handlers struct {
	Ticket   *apiHandler.TicketHandler
	Queue    *apiHandler.QueueHandler
	Events   *apiHandler.EventsHandler
	Activity *apiHandler.ActivityHandler
	Health   *apiHandler.HealthHandler
}

func New(handlers Handlers, identity func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health/live", handlers.Health.Live)
	r.GET("/health/ready", handlers.Health.Ready)

	// Public: kiosks, waiting screens and the customer's phone.
	r.POST("/api/v1/tickets", handlers.Ticket.Register)
	r.GET("/api/v1/tickets/{id}", handlers.Ticket.Status)
	r.GET("/api/v1/tickets/number/{number}", handlers.Ticket.StatusByNumber)
	r.POST("/api/v1/tickets/{id}/cancel", handlers.Ticket.Cancel)

	// Staff dashboard.
	r.POST("/api/v1/staff/call-next", identity(handlers.Queue.CallNext))
	r.POST("/api/v1/staff/tickets/{id}/call", identity(handlers.Ticket.Call))
	r.POST("/api/v1/staff/tickets/{id}/complete", identity(handlers.Ticket.Complete))
	r.POST("/api/v1/staff/tickets/{id}/no-show", identity(handlers.Ticket.NoShow))
	r.GET("/api/v1/staff/current-ticket", identity(handlers.Queue.CurrentTicket))
	r.GET("/api/v1/departments/{id}/queue", identity(handlers.Queue.DepartmentQueue))
	r.GET("/api/v1/activity", identity(handlers.Activity.Recent))

	// Live event streams.
	r.GET("/ws/tickets/{id}", handlers.Events.SubscribeTicket)
	r.GET("/ws/departments/{id}", handlers.Events.SubscribeDepartment)

	return r
}
