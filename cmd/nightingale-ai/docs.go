package main

// API documentation for swaggo. Build with -tags=swagger to serve the UI.
//
// @title           Nightingale AI API
// @version         1.0
// @description     Medical question answering, clinical summaries, term explanations and insurance document extraction.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
