package main

// General API documentation for swaggo, served by `ggufctl serve`.
//
// @title           ggufctl control API
// @version         1.0
// @description     HTTP front for a llama-server launched and managed by ggufctl.
//
// @contact.name   ggufctl maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
