// Package api implements the tableside-server HTTP API on gin.
//
// The menu, order and reservation routes keep the paths and JSON messages
// the existing web and mobile front ends already call. They are the event
// producers of the system: after a successful store write they
// call the notifier, and whatever happens there never changes the HTTP
// response.
//
// Routes:
//
//	GET    /health                                  liveness + live WebSocket count
//	GET    /ws/stats                                registry counts (total, registered, per role)
//	GET    /ws, GET / (upgrade)                     WebSocket hub, when configured
//	GET    /metrics                                 Prometheus exposition, when configured
//
//	GET    /menu/getMenu
//	GET    /menu/getMenuItem/:itemId
//	POST   /menu/newMenuItem                        ADMIN
//	PUT    /menu/updateMenuItem                     ADMIN; unavailable item -> USER "Item unavailable"
//	DELETE /menu/deleteMenuItem                     ADMIN
//
//	GET    /orders/getAllPendingOrders
//	GET    /orders/getAllActiveOrders
//	GET    /orders/getActiveOrder/:userId
//	GET    /orders/getPendingOrder/:userId
//	GET    /orders/getOrderHistory/:userId
//	POST   /orders/newOrder                         -> ADMIN "New Order Created"
//	PUT    /orders/updateOrderStatus                ADMIN; -> owner "Order Status Updated"
//
//	GET    /reservations/getUserReservations/:userId
//	GET    /reservations/getPendingReservations
//	GET    /reservations/getReservations
//	POST   /reservations/newReservations            -> ADMIN "New Reservation Created"
//	PUT    /reservations/updateReservationStatus    ADMIN; -> USER or ADMIN by status
//	PUT    /reservations/updateReservation          ADMIN; -> USER "Reservations Details Updated"
//
// Routes marked ADMIN require a token with role ADMIN when auth mode is "jwt";
// every non-health route requires a valid token in that mode.
//
// Errors use the body {"message": "...", "error": "..."}; "error" carries the
// underlying cause on 500 responses only.
package api
