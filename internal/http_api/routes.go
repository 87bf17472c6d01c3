package http_api

// routes sets up the routes for the HTTP server.
func (s *HTTPServer) routes() {
	s.router.POST("/verify", s.verify)
	s.router.POST("/dispatch", s.dispatch)
	s.router.GET("/config", s.configInfo)
	s.router.GET("/health", s.health)
}
