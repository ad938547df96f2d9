package internal

import (
	"encoding/json"
	"fmt"
	"glodipay/config"
	"glodipay/entity"
	"glodipay/services"
	"github.com/julienschmidt/httprouter"
	"io"
	"net"
	"net/http"
)

const (
	createPayment = "/payment/create"
	verifyPayment = "/payment/verify"
	paymentNotify = "/payment/notify"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	payments   services.Payments
	logger     services.LogHandler
}

func NewServer(conf *config.Config) *Server {

	server := Server{
		conf: conf,
	}

	// register itself as a router for httpServer handler
	router := httprouter.New()
	server.Register(router)
	server.httpServer = &http.Server{
		Handler: router,
	}

	return &server
}

func (s *Server) Register(router *httprouter.Router) {
	router.POST(createPayment, s.createPayment)
	router.POST(verifyPayment, s.verifyPayment)
	router.POST(paymentNotify, s.paymentNotify)
}

func (s *Server) SetPaymentsService(payments services.Payments) {
	s.payments = payments
}

func (s *Server) SetLogger(logger services.LogHandler) {
	s.logger = logger
}

func (s *Server) Start() error {
	if s.conf == nil {
		return fmt.Errorf("configuration not loaded")
	}

	serverAddress := fmt.Sprintf("%s:%s", s.conf.Listen.BindIP, s.conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	if s.conf.Listen.TLS {
		s.logger.Info(fmt.Sprintf("starting https TLS on %s", serverAddress))
		err = s.httpServer.ServeTLS(listener, s.conf.Listen.CertFile, s.conf.Listen.KeyFile)
	} else {
		s.logger.Info(fmt.Sprintf("starting http on %s", serverAddress))
		err = s.httpServer.Serve(listener)
	}

	return err
}

func (s *Server) createPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Add request ID for tracing
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] create payment: read request body", reqID), err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var request entity.PaymentRequest
	err = json.Unmarshal(body, &request)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] create payment: decode request body", reqID), err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.logger.Info(fmt.Sprintf("[%s] processing request: create payment for order %s", reqID, request.OrderRef))
	response, err := s.payments.CreatePayment(ctx, &request)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] create payment for order %s", reqID, request.OrderRef), err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s.writeJson(w, reqID, response)
}

func (s *Server) verifyPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Add request ID for tracing
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] verify payment: read request body", reqID), err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var request entity.VerifyRequest
	err = json.Unmarshal(body, &request)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] verify payment: decode request body", reqID), err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if request.TransactionId == "" {
		s.logger.Warn(fmt.Sprintf("[%s] verify payment: empty transaction id", reqID))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	verified := s.payments.VerifyPayment(ctx, request.TransactionId, request.Signature)

	s.writeJson(w, reqID, map[string]bool{"verified": verified})
}

func (s *Server) paymentNotify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Add request ID for tracing
	ctx := WithRequestID(r.Context())
	reqID := GetRequestID(ctx)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] payment notify: get body", reqID), err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	err = s.payments.Notify(ctx, body)
	if err != nil {
		s.logger.Error(fmt.Sprintf("[%s] payment notify: process body", reqID), err)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeJson(w http.ResponseWriter, reqID string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error(fmt.Sprintf("[%s] encode response", reqID), err)
	}
}
