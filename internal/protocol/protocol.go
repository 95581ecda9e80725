// internal/protocol/protocol.go
package protocol

// Code is a wire command code. Commands use 4-character codes; the response
// codes OK, ERR and PING are recognized as-is.
type Code string

const (
	// Test and system codes
	CodeTest     Code = "TEST"
	CodeShutdown Code = "STDN"
	CodePing     Code = "PING"

	// Player management
	CodeRegister   Code = "RGST"
	CodeChangeName Code = "CHAN"
	CodeExit       Code = "EXIT"

	// Lobby management
	CodeCreateLobby Code = "CREA"
	CodeJoin        Code = "JOIN"
	CodeLeave       Code = "LEAV"
	CodeListLobbies Code = "LIST"
	CodeListPlayers Code = "LSTP"
	CodeStart       Code = "STRT"

	// Chat
	CodeChatGlobal  Code = "CHTG"
	CodeChatLobby   Code = "CHTL"
	CodeChatPrivate Code = "CHTP"

	// Game flow
	CodeStartTurn   Code = "TURN"
	CodeEndTurn     Code = "ENDT"
	CodeSynchronize Code = "SYNC"
	CodeStats       Code = "STAT"
	CodeLeaderboard Code = "LEAD"
	CodeEndGame     Code = "ENDG"

	// Game actions
	CodeBuyHexField      Code = "BUYH"
	CodeBuildStructure   Code = "BLDS"
	CodeUpgradeStructure Code = "UPGS"
	CodePlaceStatue      Code = "PLSU"
	CodeTradeResources   Code = "TRDE"
	CodeResourceBalance  Code = "RESB"
	CodeStartRitual      Code = "RITL"
	CodeBlessing         Code = "BLES"
	CodeCurse            Code = "CURS"
	CodeUseArtifact      Code = "USEA"
	CodeFindArtifact     Code = "FIND"

	// Notices and responses
	CodeInfo Code = "INFO"
	CodeOK   Code = "OK"
	CodeErr  Code = "ERR"
)

// knownCodes is the decode registry. Unknown codes fail decode instead of
// being silently dropped.
var knownCodes = map[Code]struct{}{
	CodeTest: {}, CodeShutdown: {}, CodePing: {},
	CodeRegister: {}, CodeChangeName: {}, CodeExit: {},
	CodeCreateLobby: {}, CodeJoin: {}, CodeLeave: {}, CodeListLobbies: {},
	CodeListPlayers: {}, CodeStart: {},
	CodeChatGlobal: {}, CodeChatLobby: {}, CodeChatPrivate: {},
	CodeStartTurn: {}, CodeEndTurn: {}, CodeSynchronize: {}, CodeStats: {},
	CodeLeaderboard: {}, CodeEndGame: {},
	CodeBuyHexField: {}, CodeBuildStructure: {}, CodeUpgradeStructure: {},
	CodePlaceStatue: {}, CodeTradeResources: {}, CodeResourceBalance: {},
	CodeStartRitual: {}, CodeBlessing: {}, CodeCurse: {}, CodeUseArtifact: {},
	CodeFindArtifact: {},
	CodeInfo:         {}, CodeOK: {}, CodeErr: {},
}

// Known reports whether c is a recognized wire code.
func Known(c Code) bool {
	_, ok := knownCodes[c]
	return ok
}

// argCounts maps each command to its required argument count. Commands absent
// from this map accept any number of arguments (chat payloads, responses).
var argCounts = map[Code]int{
	CodeShutdown: 0, CodePing: 0,
	CodeRegister: 1, CodeChangeName: 1, CodeExit: 0, CodeLeave: 0,
	CodeCreateLobby: 1, CodeListLobbies: 0, CodeStart: 0,
	CodeStartTurn: 0, CodeEndTurn: 0, CodeSynchronize: 0, CodeStats: 0,
	CodeLeaderboard: 0,
	CodeBuyHexField: 2, CodeBuildStructure: 3, CodeUpgradeStructure: 2,
	CodePlaceStatue: 3, CodeTradeResources: 2, CodeResourceBalance: 0,
	CodeStartRitual: 2, CodeBlessing: 2, CodeCurse: 3,
	CodeFindArtifact: 2,
}

// CheckArgs validates the argument count for a decoded command.
func CheckArgs(c Code, args []string) bool {
	switch c {
	case CodeJoin:
		// JOIN:lobbyID,name with an optional reconnect token appended.
		return len(args) == 2 || len(args) == 3
	case CodeUseArtifact:
		// USEA:artifact with an optional target player.
		return len(args) == 1 || len(args) == 2
	}
	want, ok := argCounts[c]
	if !ok {
		return true
	}
	return len(args) == want
}
