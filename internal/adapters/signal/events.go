package signal

// Inbound event vocabulary. The dispatch table in NewController is the
// authoritative enumeration of what this endpoint accepts; anything else
// is logged and dropped.
const (
	evJoinUserRoom      = "join_user_room"
	evJoinConversation  = "join_conversation"
	evLeaveConversation = "leave_conversation"

	evUserOnline = "user_online"
	evUserAway   = "user_away"

	evTypingStart     = "typing_start"
	evTypingStop      = "typing_stop"
	evMessageReaction = "message_reaction"

	evCallInitiate = "call_initiate"
	evCallAnswer   = "call_answer"
	evCallReject   = "call_reject"
	evCallEnd      = "call_end"

	evWebRTCOffer     = "webrtc_offer"
	evWebRTCAnswer    = "webrtc_answer"
	evWebRTCCandidate = "webrtc_ice_candidate"
)
