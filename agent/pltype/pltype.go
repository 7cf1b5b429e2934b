// Package pltype defines the Aries payload type URIs and the record states
// used by the protocol state machines.
package pltype

const DIDSovPrefix = "did:sov:BzCbsNYhMrjHiqZDTUASHg;spec/"

// connections 1.0
const (
	AriesConnectionInvitation = DIDSovPrefix + "connections/1.0/invitation"
	AriesConnectionRequest    = DIDSovPrefix + "connections/1.0/request"
	AriesConnectionResponse   = DIDSovPrefix + "connections/1.0/response"

	Ed25519Signature = DIDSovPrefix + "signature/1.0/ed25519Sha512_single"
)

// trust_ping 1.0
const (
	TrustPingPing     = DIDSovPrefix + "trust_ping/1.0/ping"
	TrustPingResponse = DIDSovPrefix + "trust_ping/1.0/ping_response"
)

// issue-credential 1.0
const (
	IssueCredentialPropose = DIDSovPrefix + "issue-credential/1.0/propose-credential"
	IssueCredentialOffer   = DIDSovPrefix + "issue-credential/1.0/offer-credential"
	IssueCredentialRequest = DIDSovPrefix + "issue-credential/1.0/request-credential"
	IssueCredentialIssue   = DIDSovPrefix + "issue-credential/1.0/issue-credential"
	IssueCredentialACK     = DIDSovPrefix + "issue-credential/1.0/ack"
	CredentialPreview      = DIDSovPrefix + "issue-credential/1.0/credential-preview"
)

// present-proof 1.0
const (
	PresentProofPropose      = DIDSovPrefix + "present-proof/1.0/propose-presentation"
	PresentProofRequest      = DIDSovPrefix + "present-proof/1.0/request-presentation"
	PresentProofPresentation = DIDSovPrefix + "present-proof/1.0/presentation"
	PresentProofACK          = DIDSovPrefix + "present-proof/1.0/ack"
	PresentationPreview      = DIDSovPrefix + "present-proof/1.0/presentation-preview"
)

// routing, coordinate-mediation and messagepickup
const (
	RoutingForward = DIDSovPrefix + "routing/1.0/forward"

	MediationRequest      = DIDSovPrefix + "coordinate-mediation/1.0/mediation-request"
	MediationGrant        = DIDSovPrefix + "coordinate-mediation/1.0/mediation-grant"
	MediationDeny         = DIDSovPrefix + "coordinate-mediation/1.0/mediation-deny"
	KeylistUpdate         = DIDSovPrefix + "coordinate-mediation/1.0/keylist-update"
	KeylistUpdateResponse = DIDSovPrefix + "coordinate-mediation/1.0/keylist-update-response"

	BatchPickup = DIDSovPrefix + "messagepickup/1.0/batch-pickup"
	Batch       = DIDSovPrefix + "messagepickup/1.0/batch"
)

// basicmessage and notification
const (
	BasicMessage  = DIDSovPrefix + "basicmessage/1.0/message"
	ProblemReport = DIDSovPrefix + "report-problem/1.0/problem-report"
)

// attachment IDs libindy expects
const (
	LibindyCredOfferID    = "libindy-cred-offer-0"
	LibindyCredRequestID  = "libindy-cred-request-0"
	LibindyCredID         = "libindy-cred-0"
	LibindyProofRequestID = "libindy-request-presentation-0"
	LibindyPresentationID = "libindy-presentation-0"
)

// connection states
const (
	StateInit      = "INIT"
	StateInvited   = "INVITED"
	StateRequested = "REQUESTED"
	StateResponded = "RESPONDED"
	StateComplete  = "COMPLETE"
)

// credential exchange states, holder view
const (
	StateProposalSent  = "PROPOSAL_SENT"
	StateOfferReceived = "OFFER_RECEIVED"
	StateRequestSent   = "REQUEST_SENT"
	StateIssued        = "ISSUED"
	StateAcked         = "ACKED"
)

// presentation exchange states
const (
	StateRequestReceived      = "REQUEST_RECEIVED"
	StatePresentationSent     = "PRESENTATION_SENT"
	StatePresentationReceived = "PRESENTATION_RECEIVED"
	StateVerified             = "VERIFIED"
	StateFailed               = "FAILED"
)

// trust ping states
const (
	StateSent   = "SENT"
	StateActive = "ACTIVE"
)
