package webserver

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (web *WebServer) routes() {
	api := "/api/v" + web.apiVersion

	web.router.HandleFunc(api+"/codecs", web.codecsHdlr).Methods("GET")
	web.router.HandleFunc(api+"/sessions", web.sessionsHdlr).Methods("GET", "POST")
	web.router.HandleFunc(api+"/sessions/{id}", web.sessionHdlr).Methods("GET", "DELETE")
	web.router.HandleFunc(api+"/sessions/{id}/command/{command}", web.commandHdlr).Methods("POST")
	web.router.HandleFunc(api+"/sessions/{id}/{command:setup|encode|decode}", web.commandHdlr).Methods("POST")
	web.router.HandleFunc(api+"/events", web.eventsHdlr).Methods("GET")
	web.router.HandleFunc(api+"/events/stream", web.eventStreamHdlr)
	web.router.HandleFunc("/ws/{kind}", web.webSocketHdlr)

	if web.gatherer != nil {
		web.router.Handle("/metrics", promhttp.HandlerFor(web.gatherer, promhttp.HandlerOpts{}))
	}
}
