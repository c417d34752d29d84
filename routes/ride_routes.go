package routes

import (
	handlers "campusrides/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// SetupRideRoutes sets up ride publishing, search and seat booking. Seat
// booking honours Idempotency-Key so a retried request books once.
func SetupRideRoutes(r *gin.RouterGroup, rideHandler *handlers.RideHandler, idempotent gin.HandlerFunc) {
	rides := r.Group("/rides")
	{
		rides.POST("", rideHandler.PublishRide)
		rides.GET("/search", rideHandler.SearchRides)
		rides.GET("/mine", rideHandler.ListMyRides)
		rides.GET("/:id", rideHandler.GetRide)
		rides.PATCH("/:id/status", rideHandler.UpdateStatus)

		rides.POST("/:id/bookings", idempotent, rideHandler.BookSeats)
		rides.GET("/:id/bookings", rideHandler.ListRideBookings)
	}
}

func SetupBookingRoutes(r *gin.RouterGroup, bookingHandler *handlers.BookingHandler, idempotent gin.HandlerFunc) {
	bookings := r.Group("/bookings")
	{
		bookings.GET("", bookingHandler.ListMyBookings)
		bookings.GET("/:id", bookingHandler.GetBooking)
		bookings.POST("/:id/cancel", idempotent, bookingHandler.CancelBooking)
	}
}

func SetupCarRoutes(r *gin.RouterGroup, carHandler *handlers.CarHandler) {
	cars := r.Group("/cars")
	{
		cars.POST("", carHandler.CreateCar)
		cars.GET("", carHandler.ListMyCars)
		cars.GET("/:id", carHandler.GetCar)
		cars.PATCH("/:id", carHandler.UpdateCar)
		cars.POST("/:id/images", carHandler.AddCarImage)
	}
}
