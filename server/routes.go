package server

func (s *Server) initRoutes() {
	// Account lifecycle
	s.RegisterRouteFunc("POST /auth/signup", ChainMiddleware(s.SignUpHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST /auth/signup/complete/{id}", ChainMiddleware(s.SignUpCompleteHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST /auth/password-reset", ChainMiddleware(s.PasswordResetRequestHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST /auth/password-reset/{id}", ChainMiddleware(s.PasswordResetHandler(), s.APIMiddleware()...))

	// Token issuance and rotation
	s.RegisterRouteFunc("POST /auth/signin", ChainMiddleware(s.SignInHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST /auth/refresh", ChainMiddleware(s.RefreshHandler(), s.RefreshMiddleware()...))
	s.RegisterRouteFunc("POST /auth/signout", ChainMiddleware(s.SignOutHandler(), s.AuthenticatedAPIMiddleware()...))

	// Session introspection, gated on access tokens
	s.RegisterRouteFunc("GET /auth/me", ChainMiddleware(s.MeHandler(), s.AccessMiddleware()...))
	s.RegisterRouteFunc("GET /auth/sessions", ChainMiddleware(s.SessionsHandler(), s.AccessMiddleware()...))
	s.RegisterRouteFunc("GET /auth/sessions/{id}", ChainMiddleware(s.SessionHandler(), s.AccessMiddleware()...))
	s.RegisterRouteFunc("DELETE /auth/sessions/{id}", ChainMiddleware(s.SessionDeleteHandler(), s.AccessMiddleware()...))
}
