package main

import (
	_ "order-desk/docs"

	"order-desk/commands"
)

// @title Order Desk API
// @version 1.0
// @description REST backend for users, authentication and orders.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	commands.Execute()
}
