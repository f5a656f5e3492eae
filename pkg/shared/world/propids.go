package world

// Character (pc) property ids.
const (
	PCName     uint16 = 100
	PCTeamName uint16 = 101
	PCLevel    uint16 = 102
	PCJob      uint16 = 103

	PCHp    uint16 = 110
	PCMaxHp uint16 = 111
	PCSp    uint16 = 112
	PCMaxSp uint16 = 113

	PCStr uint16 = 120
	PCCon uint16 = 121
	PCInt uint16 = 122
	PCMna uint16 = 123
	PCDex uint16 = 124

	PCStance uint16 = 130
)

// Monster property ids. They are spelled out again in the prop tags of
// Monster; keep both in step.
const (
	MonName  uint16 = 200
	MonLevel uint16 = 201
	MonHp    uint16 = 202
	MonMaxHp uint16 = 203
	MonSpeed uint16 = 204
)
