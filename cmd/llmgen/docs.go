package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           llmgen API
// @version         1.0
// @description     HTTP API for batched text generation against a locally loaded model.
//
// @contact.name   llmgen maintainers
// @contact.url    https://github.com/your-org/llmgen
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
