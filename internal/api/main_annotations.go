// @title           DevHub Data API
// @version         1.0
// @description     Developer directory, blogs and comments. Paths and payloads follow json-server conventions.
// @BasePath        /
// @securityDefinitions.apikey BearerToken
// @in              header
// @name            Authorization
// @description     Type "Bearer" followed by a space and the token returned for your user.
package api
