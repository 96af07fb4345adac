package main

import "campus-parking-backend/cmd/parkingd/command"

func main() {
	command.Execute()
}
