package core

// Color names the role a screen cell plays. The platform layer maps each
// role to a concrete terminal style.
type Color uint8

const (
	ColorDefault  Color = iota
	ColorDrop           // A falling problem
	ColorSelected       // The drop the player is answering
	ColorUrgent         // A drop close to the ground
	ColorGround         // The floor line drops land on
	ColorBorder         // Playfield frame
	ColorHUD            // Score, lives, level
	ColorGood           // Feedback for a correct answer
	ColorBad            // Feedback for a wrong answer or a landed drop
	ColorDim            // Hints and secondary text
)
