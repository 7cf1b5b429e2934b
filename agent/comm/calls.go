package comm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ayanworks/arnima-agent-go/agent/sec"
	"github.com/ayanworks/arnima-agent-go/agent/ssi"
	"github.com/ayanworks/arnima-agent-go/agent/utils"
	"github.com/findy-network/findy-wrapper-go/dto"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var (
	ErrMissingRecipientKeys = errors.New("their DID document has no usable key")
	ErrTransportTimeout     = errors.New("transport timeout")
	ErrNoTransport          = errors.New("no reachable endpoint")
)

const wireContentType = "application/ssi-agent-wire"

// SendAndWaitReq is a proxy variable so tests can catch outbound wire
// messages without an HTTP server.
var SendAndWaitReq = sendAndWaitHTTPRequest

// SendPL packs the outbound payload through the pipe and posts it to the
// counterparty endpoint. The response body is returned as is; with a
// return-route decorator in the payload it may carry an inlined reply.
func SendPL(pipe sec.Pipe, out *Outbound) (response []byte, err error) {
	defer err2.Handle(&err, "send payload")

	if out.Endpoint == "" || out.Endpoint == ssi.QueueEndpoint {
		return nil, fmt.Errorf("%w: %s", ErrNoTransport, out.Endpoint)
	}

	msg := dto.ToJSONBytes(out.Payload)
	glog.V(5).Infoln("-> send:", string(msg))

	packed := try.To1(pipe.Pack(msg, out.SenderVerKey,
		out.RecipientKeys, out.RoutingKeys))

	return try.To1(SendAndWaitReq(out.Endpoint,
		bytes.NewReader(packed), utils.Settings.Timeout())), nil
}

func sendAndWaitHTTPRequest(urlStr string, msg io.Reader, timeout time.Duration) (data []byte, err error) {
	defer err2.Handle(&err, "send and wait")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	request := try.To1(http.NewRequestWithContext(ctx, http.MethodPost, urlStr, msg))
	request.Header.Set("Content-Type", wireContentType)

	response, err := http.DefaultClient.Do(request)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s", ErrTransportTimeout, urlStr)
	}
	try.To(err)
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("send to %s: status %d", urlStr, response.StatusCode)
	}
	return try.To1(io.ReadAll(response.Body)), nil
}
