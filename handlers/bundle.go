package handlers

// HandlerBundle groups all HTTP handlers for route registration.
type HandlerBundle struct {
	Booking    *BookingHandler
	Schedule   *ScheduleHandler
	Classes    *ClassHandler
	Orders     *OrderHandler
	Payment    *PaymentHandler
	Instructor *InstructorHandler
}
