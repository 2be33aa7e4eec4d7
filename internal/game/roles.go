package game

// Role strings match the wire contract the clients render.
type Role string

const (
	RoleVillager    Role = "villager"
	RoleDemon       Role = "demon"
	RoleDemonLeader Role = "demonLeader"
	RoleDoctor      Role = "doctor"
	RoleInspector   Role = "inspector"
)

// Alignment is the faction a role belongs to; it decides the win condition.
type Alignment string

const (
	AlignmentVillagers Alignment = "villagers"
	AlignmentDemons    Alignment = "demons"
)

func (r Role) Alignment() Alignment {
	if r.DemonAligned() {
		return AlignmentDemons
	}
	return AlignmentVillagers
}

func (r Role) DemonAligned() bool {
	return r == RoleDemon || r == RoleDemonLeader
}

// Apparent is the role an inspector sees. The demon leader passes as a
// villager; every other role shows as itself.
func (r Role) Apparent() Role {
	if r == RoleDemonLeader {
		return RoleVillager
	}
	return r
}

// KillCause records which faction eliminated a player.
type KillCause string

const (
	KilledByVillagers KillCause = "villagers"
	KilledByDemons    KillCause = "demons"
)
