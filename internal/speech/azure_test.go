package speech

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func TestSSML(t *testing.T) {
	doc, err := SSML("מַדַּד S&P <עוֹלֶה>.\n\nעוֹד בָּעוֹלָם:", "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, `<speak version="1.0"`))
	assert.Contains(t, doc, `<voice name="he-IL-AvriNeural">`)
	assert.Contains(t, doc, "S&amp;P &lt;")
	assert.Equal(t, 1, strings.Count(doc, paragraphBreak))
	assert.True(t, norm.NFC.IsNormalString(doc))
}

func TestSSML_NormalisesDecomposedInput(t *testing.T) {
	decomposed := norm.NFD.String("בּ")
	doc, err := SSML(decomposed, "he-IL-HilaNeural")
	require.NoError(t, err)
	assert.Contains(t, doc, norm.NFC.String(decomposed))
	assert.Contains(t, doc, "he-IL-HilaNeural")
}

func TestAzureSynthesizer_Synthesize(t *testing.T) {
	var gotBody, gotKey, gotFormat, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotKey = r.Header.Get("Ocp-Apim-Subscription-Key")
		gotFormat = r.Header.Get("X-Microsoft-OutputFormat")
		gotType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte("ID3-fake-mp3"))
	}))
	defer srv.Close()

	a := NewAzureSynthesizer("", "k3y", srv.URL, "", "")
	audio, err := a.Synthesize(context.Background(), "שָׁלוֹם.", DefaultVoice)
	require.NoError(t, err)

	assert.Equal(t, []byte("ID3-fake-mp3"), audio)
	assert.Equal(t, "k3y", gotKey)
	assert.Equal(t, DefaultOutputFormat, gotFormat)
	assert.Equal(t, "application/ssml+xml", gotType)
	assert.Contains(t, gotBody, "שָׁלוֹם.")
}

func TestAzureSynthesizer_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := NewAzureSynthesizer("", "x", srv.URL, "", "")
	_, err := a.Synthesize(context.Background(), "טקסט", "")
	assert.ErrorContains(t, err, "status 401")

	_, err = a.Synthesize(context.Background(), "  ", "")
	assert.ErrorContains(t, err, "empty text")
}

func TestNewAzureSynthesizer_RegionalEndpoint(t *testing.T) {
	a := NewAzureSynthesizer("westeurope", "k", "", "", "")
	assert.Equal(t, "https://westeurope.tts.speech.microsoft.com/cognitiveservices/v1", a.Endpoint)
}
