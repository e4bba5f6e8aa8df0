package receipt

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		scanner     *mockScanner
		storage     *mockStorage
		chat        *mockAssistant
		mailer      *mockMailer
		limiter     *mockLimiter
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		service = NewService(db, scanner, storage, chat, mailer, limiter)
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	BeforeEach(func() {
		db = newMockDB()
		scanner = newMockScanner()
		storage = newMockStorage()
		chat = &mockAssistant{reply: "hello"}
		mailer = &mockMailer{}
		limiter = &mockLimiter{}
		auth = BasicAuth{}
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleHealth", func() {
		It("should return status OK", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/health")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("should report the service status", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/health")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			var status map[string]any
			Expect(json.NewDecoder(resp.Body).Decode(&status)).NotTo(HaveOccurred())
			Expect(status["status"]).To(Equal("healthy"))
			Expect(status["assistant_enabled"]).To(Equal(true))
		})

		It("should report connected live clients", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/health")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			var status map[string]any
			Expect(json.NewDecoder(resp.Body).Decode(&status)).NotTo(HaveOccurred())
			Expect(status["live_clients"]).To(BeNumerically("==", 0))
		})

		When("basic auth is configured", func() {
			BeforeEach(func() {
				auth = BasicAuth{Username: "user", Password: "pass"}
				setupServer()
			})

			It("should stay unauthenticated", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/health")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			})
		})
	})

	Describe("authentication", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "user", Password: "pass"}
			setupServer()
		})

		It("should reject requests without credentials", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/receipts")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("should accept valid credentials", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/receipts", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:pass")))
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("should reject wrong credentials", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/receipts", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("user:wrong")))
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})
	})

	Describe("handleListRecords", func() {
		When("records exist", func() {
			BeforeEach(func() {
				db.records["id1"] = &Record{ID: "id1", StoreName: "Store 1"}
				db.records["id2"] = &Record{ID: "id2", StoreName: "Store 2"}
			})

			It("should return all records", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/receipts")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				var records []*Record
				Expect(json.NewDecoder(resp.Body).Decode(&records)).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(2))
			})

			It("should set Content-Type to application/json", func() {
				resp, err := http.Get(ghttpServer.URL() + "/api/receipts")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
			})
		})
	})

	Describe("handleHistory", func() {
		BeforeEach(func() {
			db.records["id1"] = &Record{ID: "id1"}
		})

		It("should wrap the records for the dashboard", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/history")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			var body struct {
				Analyses []*Record `json:"analyses"`
				Count    int       `json:"count"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&body)).NotTo(HaveOccurred())
			Expect(body.Count).To(Equal(1))
			Expect(body.Analyses).To(HaveLen(1))
		})
	})

	Describe("handleUploadReceipt", func() {
		multipartUpload := func(filename string, data []byte) (*http.Response, error) {
			var buf bytes.Buffer
			writer := multipart.NewWriter(&buf)
			part, err := writer.CreateFormFile("file", filename)
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(writer.Close()).NotTo(HaveOccurred())

			req, err := http.NewRequest("POST", ghttpServer.URL()+"/api/receipts", &buf)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", writer.FormDataContentType())
			return http.DefaultClient.Do(req)
		}

		When("a multipart file is provided", func() {
			It("should return the analyzed record", func() {
				resp, err := multipartUpload("receipt.png", []byte("image-data"))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))

				var record Record
				Expect(json.NewDecoder(resp.Body).Decode(&record)).NotTo(HaveOccurred())
				Expect(record.StoreName).To(Equal("SUPERMARKET GROCERY"))
				Expect(record.Items).To(HaveLen(1))
				Expect(record.Analysis.Suggestions).NotTo(BeEmpty())
			})
		})

		When("a base64 image_data field is provided", func() {
			It("should decode a data URL payload", func() {
				encoded := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("image-data"))
				var buf bytes.Buffer
				writer := multipart.NewWriter(&buf)
				Expect(writer.WriteField("image_data", encoded)).NotTo(HaveOccurred())
				Expect(writer.Close()).NotTo(HaveOccurred())

				req, err := http.NewRequest("POST", ghttpServer.URL()+"/api/receipts", &buf)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Content-Type", writer.FormDataContentType())
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusCreated))
			})
		})

		When("no file is provided", func() {
			It("should return status Bad Request", func() {
				var buf bytes.Buffer
				writer := multipart.NewWriter(&buf)
				Expect(writer.Close()).NotTo(HaveOccurred())

				req, err := http.NewRequest("POST", ghttpServer.URL()+"/api/receipts", &buf)
				Expect(err).NotTo(HaveOccurred())
				req.Header.Set("Content-Type", writer.FormDataContentType())
				resp, err := http.DefaultClient.Do(req)
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})

		When("the rate limit is exhausted", func() {
			BeforeEach(func() {
				limiter.deny = true
				limiter.wait = 30 * time.Second
				setupServer()
			})

			It("should return status Too Many Requests", func() {
				resp, err := multipartUpload("receipt.png", []byte("image-data"))
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusTooManyRequests))
			})
		})
	})

	Describe("handleAnalyzeText", func() {
		analyzeText := func(body string) *http.Response {
			resp, err := http.Post(ghttpServer.URL()+"/api/analyze-text", "application/json", strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			return resp
		}

		It("extracts and analyzes raw receipt text", func() {
			resp := analyzeText(`{"text":"2x Almond Milk 4.25\nTOTAL 4.25"}`)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Items    []map[string]any `json:"items"`
				Analysis struct {
					Score    int      `json:"health_score"`
					Warnings []string `json:"warnings"`
				} `json:"analysis"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&body)).NotTo(HaveOccurred())
			Expect(body.Items).To(HaveLen(1))
			Expect(body.Items[0]["name"]).To(Equal("Almond Milk"))
			Expect(body.Analysis.Warnings).To(HaveLen(2))
			Expect(body.Analysis.Score).To(Equal(84))
		})

		It("degrades unparseable text to an empty analysis", func() {
			resp := analyzeText(`{"text":"no items here"}`)
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body struct {
				Items    []map[string]any `json:"items"`
				Analysis struct {
					Score int `json:"health_score"`
				} `json:"analysis"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&body)).NotTo(HaveOccurred())
			Expect(body.Items).To(BeEmpty())
			Expect(body.Analysis.Score).To(Equal(100))
		})

		It("rejects an invalid body", func() {
			resp := analyzeText("not-json")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("handleGetRecord", func() {
		BeforeEach(func() {
			db.records["id1"] = &Record{ID: "id1", StoreName: "Store 1"}
		})

		It("should return the record", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/receipts/id1")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("should return Not Found for an unknown ID", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/receipts/missing")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("handleGetRecordFile", func() {
		BeforeEach(func() {
			db.records["id1"] = &Record{ID: "id1", Filename: "id1_receipt.png", ContentType: "image/png"}
			storage.files["id1_receipt.png"] = []byte("image-data")
		})

		It("should return the file with its content type", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/receipts/id1/file")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("image/png"))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(body).To(Equal([]byte("image-data")))
		})
	})

	Describe("handleDeleteRecord", func() {
		BeforeEach(func() {
			db.records["id1"] = &Record{ID: "id1", Filename: "id1_receipt.png"}
			storage.files["id1_receipt.png"] = []byte("image-data")
		})

		It("should return status No Content", func() {
			req, err := http.NewRequest("DELETE", ghttpServer.URL()+"/api/receipts/id1", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.records).To(BeEmpty())
		})
	})

	Describe("handleChat", func() {
		It("should return the assistant reply", func() {
			body := `{"messages":[{"role":"user","content":"hi"}]}`
			resp, err := http.Post(ghttpServer.URL()+"/api/chat", "application/json", strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var reply map[string]string
			Expect(json.NewDecoder(resp.Body).Decode(&reply)).NotTo(HaveOccurred())
			Expect(reply["response"]).To(Equal("hello"))
		})

		It("should reject an invalid body", func() {
			resp, err := http.Post(ghttpServer.URL()+"/api/chat", "application/json", strings.NewReader("not-json"))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("handleSubscribe", func() {
		It("should subscribe a new email", func() {
			body := `{"email":"alex@example.com","userName":"Alex"}`
			resp, err := http.Post(ghttpServer.URL()+"/api/newsletter/subscribe", "application/json", strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var result map[string]string
			Expect(json.NewDecoder(resp.Body).Decode(&result)).NotTo(HaveOccurred())
			Expect(result["message"]).To(ContainSubstring("Successfully subscribed"))
			Expect(result["subscriptionId"]).NotTo(BeEmpty())
		})

		It("should return Conflict for a duplicate email", func() {
			db.subs["existing"] = &Subscription{ID: "existing", Email: "alex@example.com"}
			body := `{"email":"alex@example.com","userName":"Alex"}`
			resp, err := http.Post(ghttpServer.URL()+"/api/newsletter/subscribe", "application/json", strings.NewReader(body))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusConflict))
		})
	})

	Describe("handleListSubscribers", func() {
		BeforeEach(func() {
			db.subs["sub-1"] = &Subscription{ID: "sub-1", Email: "alex@example.com"}
		})

		It("should return the subscribers with a count", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/newsletter/subscribers")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			var body struct {
				Subscribers []*Subscription `json:"subscribers"`
				Count       int             `json:"count"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&body)).NotTo(HaveOccurred())
			Expect(body.Count).To(Equal(1))
		})
	})

	Describe("handleWebSocket", func() {
		dial := func() *websocket.Conn {
			wsURL := "ws" + strings.TrimPrefix(ghttpServer.URL(), "http") + "/ws/assistant"
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			Expect(err).NotTo(HaveOccurred())
			return conn
		}

		It("should acknowledge setup messages", func() {
			conn := dial()
			defer conn.Close()

			Expect(conn.WriteJSON(map[string]string{"type": "setup"})).NotTo(HaveOccurred())
			var reply wsMessage
			Expect(conn.ReadJSON(&reply)).NotTo(HaveOccurred())
			Expect(reply.Type).To(Equal("setup_complete"))
		})

		It("should answer chat messages", func() {
			conn := dial()
			defer conn.Close()

			Expect(conn.WriteJSON(map[string]any{
				"type":     "chat",
				"messages": []map[string]string{{"role": "user", "content": "hi"}},
			})).NotTo(HaveOccurred())
			var reply wsMessage
			Expect(conn.ReadJSON(&reply)).NotTo(HaveOccurred())
			Expect(reply.Type).To(Equal("text_response"))
			Expect(reply.Text).To(Equal("hello"))
		})

		It("should report unknown message types", func() {
			conn := dial()
			defer conn.Close()

			Expect(conn.WriteJSON(map[string]string{"type": "bogus"})).NotTo(HaveOccurred())
			var reply wsMessage
			Expect(conn.ReadJSON(&reply)).NotTo(HaveOccurred())
			Expect(reply.Type).To(Equal("error"))
		})

		It("should broadcast completed analyses to connected clients", func() {
			conn := dial()
			defer conn.Close()

			ghttpServer.AppendHandlers(server.ServeHTTP)

			var buf bytes.Buffer
			writer := multipart.NewWriter(&buf)
			part, err := writer.CreateFormFile("file", "receipt.png")
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write([]byte("image-data"))
			Expect(err).NotTo(HaveOccurred())
			Expect(writer.Close()).NotTo(HaveOccurred())

			req, err := http.NewRequest("POST", ghttpServer.URL()+"/api/receipts", &buf)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Content-Type", writer.FormDataContentType())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var notice wsMessage
			Expect(conn.ReadJSON(&notice)).NotTo(HaveOccurred())
			Expect(notice.Type).To(Equal("analysis_complete"))
			Expect(notice.Record).NotTo(BeNil())
			Expect(notice.Record.StoreName).To(Equal("SUPERMARKET GROCERY"))
		})
	})
})
