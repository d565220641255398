package main

import "hrms-backend/internal/app"

func main() {
	app.Run()
}
