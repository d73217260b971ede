package apiclient_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-bizadmin-client/apiclient"
	"github.com/jrsteele09/go-bizadmin-client/sessions"
	"github.com/jrsteele09/go-bizadmin-client/token/storefake"
	"github.com/stretchr/testify/require"
)

func TestPostMultipart_RetriedUploadKeepsParts(t *testing.T) {
	var calls atomic.Int32
	var notes, fileBody, fileName atomic.Value

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+sessions.RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"token": "fresh"})
	})
	mux.HandleFunc("POST /custprod/inv-1/pod", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "expired"})
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		notes.Store(r.FormValue("deliveryNotes"))
		f, hdr, err := r.FormFile("podFile")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": err.Error()})
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		fileBody.Store(string(data))
		fileName.Store(hdr.Filename)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "POD uploaded"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	session := sessions.NewManager(storefake.NewFakeTokenStoreWith("stale", "refresh-1"), srv.URL)
	c := apiclient.New(srv.URL, session)

	form := apiclient.NewForm().
		Field("deliveryNotes", "left at gate 3").
		Field("uploadedBy", "jane").
		File(apiclient.File{Field: "podFile", Name: "pod.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 signed")})

	resp, err := c.PostMultipart(context.Background(), "/custprod/inv-1/pod", form, 0)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, int32(2), calls.Load())
	require.Equal(t, "left at gate 3", notes.Load())
	require.Equal(t, "%PDF-1.4 signed", fileBody.Load())
	require.Equal(t, "pod.pdf", fileName.Load())
}
