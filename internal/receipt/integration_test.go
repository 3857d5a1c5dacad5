package receipt_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/receipt-items/internal/document"
	"github.com/zombor/receipt-items/internal/receipt"
	"github.com/zombor/receipt-items/internal/scanning"
)

// fakeTextract replays a fixed analysis for every job
type fakeTextract struct {
	started []scanning.Document
	blocks  []document.Block
}

func (f *fakeTextract) StartAnalysis(ctx context.Context, doc scanning.Document) (string, error) {
	f.started = append(f.started, doc)
	return "textract-job-1", nil
}

func (f *fakeTextract) GetAnalysis(ctx context.Context, jobID string) (*scanning.Analysis, error) {
	return &scanning.Analysis{JobID: jobID, Status: "SUCCEEDED", Blocks: f.blocks}, nil
}

func (f *fakeTextract) Close() error {
	return nil
}

func loadBlocks(path string) []document.Block {
	data, err := os.ReadFile(path)
	Expect(err).NotTo(HaveOccurred())

	var analysis struct {
		Blocks []document.Block `json:"Blocks"`
	}
	Expect(json.Unmarshal(data, &analysis)).To(Succeed())
	return analysis.Blocks
}

var _ = Describe("Integration", func() {
	var (
		tempDir  string
		db       receipt.DB
		inputs   *receipt.LocalStorage
		outputs  *receipt.LocalStorage
		textract *fakeTextract
		ghServer *ghttp.Server
	)

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()

		var err error
		db, err = receipt.NewBoltDB(filepath.Join(tempDir, "jobs.db"))
		Expect(err).NotTo(HaveOccurred())

		inputs, err = receipt.NewLocalStorage(filepath.Join(tempDir, "in"))
		Expect(err).NotTo(HaveOccurred())

		outputs, err = receipt.NewLocalStorage(filepath.Join(tempDir, "out"))
		Expect(err).NotTo(HaveOccurred())

		textract = &fakeTextract{blocks: loadBlocks(filepath.Join("testdata", "analysis.json"))}

		service := receipt.NewService(db, textract, inputs, outputs, receipt.Options{
			InputBucket: "receipts-in",
			Currency:    "EUR",
			Heuristics:  receipt.DefaultHeuristics(),
		})
		server := receipt.NewServer(service, receipt.BasicAuth{})

		ghServer = ghttp.NewServer()
		ghServer.RouteToHandler("POST", "/api/receipts", server.ServeHTTP)
		ghServer.RouteToHandler("POST", "/api/notifications", server.ServeHTTP)
		ghServer.RouteToHandler("GET", "/api/jobs/textract-job-1/records", server.ServeHTTP)
	})

	AfterEach(func() {
		ghServer.Close()
		db.Close()
	})

	It("should turn an uploaded receipt into records", func() {
		By("uploading the receipt")
		var b bytes.Buffer
		writer := multipart.NewWriter(&b)
		part, err := writer.CreateFormFile("file", "kuitti.pdf")
		Expect(err).NotTo(HaveOccurred())
		part.Write([]byte("%PDF-1.7"))
		writer.Close()

		resp, err := http.Post(ghServer.URL()+"/api/receipts", writer.FormDataContentType(), &b)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		resp.Body.Close()

		Expect(textract.started).To(HaveLen(1))
		uploaded, err := inputs.Get(textract.started[0].Key)
		Expect(err).NotTo(HaveOccurred())
		Expect(uploaded).To(Equal([]byte("%PDF-1.7")))

		By("delivering the completion notification")
		message, err := json.Marshal(map[string]string{
			"Type":    "Notification",
			"Message": `{"JobId":"textract-job-1","Status":"SUCCEEDED","API":"StartDocumentAnalysis"}`,
		})
		Expect(err).NotTo(HaveOccurred())

		resp, err = http.Post(ghServer.URL()+"/api/notifications", "text/plain", bytes.NewReader(message))
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		var job receipt.Job
		Expect(json.NewDecoder(resp.Body).Decode(&job)).To(Succeed())
		resp.Body.Close()

		Expect(job.Status).To(Equal(receipt.JobStatusProcessed))
		Expect(job.Store).To(Equal("S-market Hervanta"))
		Expect(job.OutputKey).To(Equal("store=S-market Hervanta/20240314-174500.json"))

		By("reading the records back")
		resp, err = http.Get(ghServer.URL() + "/api/jobs/textract-job-1/records")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())

		Expect(string(body)).To(Equal(
			`{"name":"Bananas","price":1.1,"currency":"EUR","unit":"kg","date":"2024-03-14 17:45:00"}` + "\n" +
				`{"name":"Milk","price":1.25,"currency":"EUR","unit":"kg","date":"2024-03-14 17:45:00"}` + "\n" +
				`{"name":"Ruisleipä","price":2.49,"currency":"EUR","unit":"","date":"2024-03-14 17:45:00"}` + "\n",
		))

		written, err := os.ReadFile(filepath.Join(tempDir, "out", "store=S-market Hervanta", "20240314-174500.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(written).To(Equal(body))
	})
})
